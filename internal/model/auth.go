package model

import "time"

// LoginRequest carries the credentials posted to /auth/login.
type LoginRequest struct {
	UserCode string `binding:"required" json:"userCode"`
	Password string `binding:"required" json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// RefreshRequest carries the refresh token back from the client.
type RefreshRequest struct {
	RefreshToken string `binding:"required" json:"refreshToken"`
}
