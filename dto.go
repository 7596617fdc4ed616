package auth

import "time"

// UserDTO is the public projection of a user record.
type UserDTO struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name,omitempty"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// NewUserDTO maps a user record to its public projection. Credential material
// never crosses this boundary.
func NewUserDTO(user *User) *UserDTO {
	if user == nil {
		return nil
	}

	user.EnsureStatus()

	return &UserDTO{
		ID:            user.ID.String(),
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Username:      user.Username,
		Email:         user.Email,
		Role:          string(user.Role),
		Status:        string(user.Status),
		EmailVerified: user.EmailValidated,
		CreatedAt:     user.CreatedAt,
	}
}

// SignInResponse is the body returned by a successful sign in.
type SignInResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         *UserDTO `json:"user"`
}

// NewSignInResponse maps an AuthResult to the wire response.
func NewSignInResponse(result *AuthResult) *SignInResponse {
	if result == nil {
		return nil
	}

	return &SignInResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         NewUserDTO(result.User),
	}
}
