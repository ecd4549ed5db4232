package dto

// UserOutput is the caller-facing identity summary returned on login, refresh,
// and /me. Name fields come from the profile collaborator when one exists.
type UserOutput struct {
	ID                       string `json:"id"`
	Email                    string `json:"email"`
	FirstName                string `json:"first_name,omitempty"`
	LastName                 string `json:"last_name,omitempty"`
	UserType                 string `json:"user_type"`
	IsVerified               bool   `json:"is_verified"`
	ProfileCompleted         bool   `json:"profile_completed"`
	MandatoryFieldsCompleted bool   `json:"mandatory_fields_completed"`
}

// TokenResponse is the envelope shared by login and refresh.
type TokenResponse struct {
	Success      bool       `json:"success"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	User         UserOutput `json:"user"`
	RedirectURL  string     `json:"redirect_url,omitempty"`
}

type LoginErrorResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
}
