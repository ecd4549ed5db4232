package service

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const passwordSpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// PasswordService hashes and verifies passwords with bcrypt at a configurable cost.
type PasswordService struct {
	cost int
}

func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordService{cost: cost}
}

func (p *PasswordService) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the password matches the hash. Any internal error,
// including a malformed hash, counts as a mismatch so authentication fails closed.
func (p *PasswordService) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckStrength returns whether the password meets the policy and, if not, the
// missing requirements as user-facing messages.
func (p *PasswordService) CheckStrength(password string) (bool, []string) {
	var missing []string

	if len(password) < 8 {
		missing = append(missing, "Mínimo 8 caracteres")
	}
	if !containsFunc(password, unicode.IsUpper) {
		missing = append(missing, "Una letra mayúscula")
	}
	if !containsFunc(password, unicode.IsLower) {
		missing = append(missing, "Una letra minúscula")
	}
	if !containsFunc(password, unicode.IsDigit) {
		missing = append(missing, "Un número")
	}
	if !strings.ContainsAny(password, passwordSpecialChars) {
		missing = append(missing, "Un carácter especial")
	}

	return len(missing) == 0, missing
}

// StrengthScore scores a password from 0 (weakest) to 5.
func (p *PasswordService) StrengthScore(password string) int {
	score := 0
	if len(password) >= 8 {
		score++
	}
	if containsFunc(password, unicode.IsUpper) {
		score++
	}
	if containsFunc(password, unicode.IsLower) {
		score++
	}
	if containsFunc(password, unicode.IsDigit) {
		score++
	}
	if strings.ContainsAny(password, passwordSpecialChars) {
		score++
	}
	return score
}

func containsFunc(s string, f func(rune) bool) bool {
	for _, r := range s {
		if f(r) {
			return true
		}
	}
	return false
}
