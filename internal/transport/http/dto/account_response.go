package dto

import "github.com/baechuer/real-time-ressys/services/identity-service/internal/application/auth"

// UserResponse is returned by login and token refresh.
type UserResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	JWT       string `json:"jwt"`
}

func NewUserResponse(r auth.SessionResult) UserResponse {
	return UserResponse{FirstName: r.FirstName, LastName: r.LastName, JWT: r.JWT}
}

type MessageResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func NewMessageResponse(title, message string) MessageResponse {
	return MessageResponse{Title: title, Message: message}
}
