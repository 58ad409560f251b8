package models

type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type SessionResponse struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	Expires     int64  `json:"expires"`
}
