// Package api declares the identity service's command tags and wire
// payloads. Both the service transport and its clients build against
// these types so the contract cannot drift between sides.
package api

import "presence/internal/identity/models"

const (
	CmdLogin          = "login"
	CmdVerifyToken    = "verify_token"
	CmdRegisterUser   = "register_user"
	CmdGetHomeArea    = "get_home_area"
	CmdUpdateHomeArea = "update_home_area"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

type VerifyTokenResponse struct {
	Principal models.Principal `json:"principal"`
}

type RegisterUserRequest struct {
	models.Registration
}

type RegisterUserResponse struct {
	UserID int64 `json:"user_id"`
}

type GetHomeAreaRequest struct {
	UserID int64 `json:"user_id"`
}

type UpdateHomeAreaRequest struct {
	UserID int64   `json:"user_id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type HomeAreaResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
