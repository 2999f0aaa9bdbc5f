package http

import (
	"github.com/go-user-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-user-api/internal/infrastructure/jwt"
	s3infra "github.com/go-user-api/internal/infrastructure/s3"
	"github.com/go-user-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	CodeRepo    *dynamo.EmailCodeRepo
	AvatarStore *s3infra.Store
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
