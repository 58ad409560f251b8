package models

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

type RegisterVerificationRequest struct {
	Code string `json:"code" validate:"required,hexadecimal,max=128"`
}

type ResetRequest struct {
	Username string `json:"username" validate:"required,max=254"`
}

type ResetVerificationRequest struct {
	Code     string `json:"code" validate:"required,hexadecimal,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

type AuthenticateRequest struct {
	Username string `json:"username" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=256"`
	Remember bool   `json:"remember"`
}
