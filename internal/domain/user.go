package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	FirstName    string    `json:"first_name" dynamodbav:"first_name"`
	LastName     string    `json:"last_name" dynamodbav:"last_name"`
	Country      string    `json:"country" dynamodbav:"country"`
	Image        *string   `json:"image,omitempty" dynamodbav:"image"`
	IsVerified   bool      `json:"is_verified" dynamodbav:"is_verified"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8,max=72"`
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	Country      string  `json:"country" validate:"required"`
	Image        *string `json:"image"`
	FrontBaseURL string  `json:"front_base_url" validate:"required,url"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Country   *string `json:"country"`
	Image     *string `json:"image"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FrontBaseURL string `json:"front_base_url" validate:"required,url"`
}

type ConfirmResetRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}
