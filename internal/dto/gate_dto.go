package dto

import "time"

type UnlockRequest struct {
	Password string `json:"password" validate:"required"`
}

type UnlockResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
