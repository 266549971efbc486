package dto

import "strings"

type LoginRequest struct {
	UserName string `json:"userName" validate:"required" label:"UserName"`
	Password string `json:"password" validate:"required" label:"Password"`
}

func (r *LoginRequest) Validate() error {
	r.UserName = strings.TrimSpace(r.UserName)
	return validateStruct(r)
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,strlen=3:15" label:"First name"`
	LastName  string `json:"lastName" validate:"required,strlen=3:15" label:"Last name"`
	Email     string `json:"email" validate:"required,identity_email" label:"Email"`
	Password  string `json:"password" validate:"required,strlen=6:15" label:"Password"`
}

func (r *RegisterRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

type ConfirmEmailRequest struct {
	Token string `json:"token" validate:"required" label:"Token"`
	Email string `json:"email" validate:"required,identity_email" label:"Email"`
}

func (r *ConfirmEmailRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required" label:"Token"`
	Email       string `json:"email" validate:"required,identity_email" label:"Email"`
	NewPassword string `json:"newPassword" validate:"required,strlen=6:15" label:"New Password"`
}

func (r *ResetPasswordRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}
