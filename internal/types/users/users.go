package users

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned from both signup and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
