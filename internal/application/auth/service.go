package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-user-api/internal/domain"
	pkgtoken "github.com/go-user-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error)
	VerifyEmail(ctx context.Context, code string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, req domain.ResetPasswordRequest) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type codeStore interface {
	Put(ctx context.Context, c *domain.EmailCode) error
	GetByCode(ctx context.Context, code string) (*domain.EmailCode, error)
	Redeem(ctx context.Context, code, userID string, userUpdates map[string]interface{}) error
}

type mailSender interface {
	SendEmail(to, subject, html string) error
}

type tokenSigner interface {
	Sign(u *domain.User) (string, error)
}

type service struct {
	userRepo userStore
	codeRepo codeStore
	mailer   mailSender
	signer   tokenSigner
	codeTTL  time.Duration
}

type ServiceDeps struct {
	UserRepo    userStore
	CodeRepo    codeStore
	Mailer      mailSender
	TokenSigner tokenSigner
	CodeTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo: deps.UserRepo,
		codeRepo: deps.CodeRepo,
		mailer:   deps.Mailer,
		signer:   deps.TokenSigner,
		codeTTL:  deps.CodeTTL,
	}
}

// Login verifies credentials and issues a signed bearer token. Unknown email
// and wrong password collapse into the same error so callers cannot enumerate
// accounts.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, string, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.IsVerified {
		return nil, "", fmt.Errorf("please verify your email: %w", domain.ErrUnauthorized)
	}
	token, err := s.signer.Sign(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// VerifyEmail redeems a verification code: the verified flag flips and the
// code is deleted in one transaction, so a second redemption always fails.
func (s *service) VerifyEmail(ctx context.Context, code string) (*domain.User, error) {
	c, err := s.lookupCode(ctx, code, domain.CodePurposeVerify)
	if err != nil {
		return nil, err
	}
	if err := s.codeRepo.Redeem(ctx, c.Code, c.UserID, map[string]interface{}{"is_verified": true}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the race against another redemption of the same code.
			return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return s.userRepo.Get(ctx, c.UserID)
}

// RequestPasswordReset issues a reset code and mails the reset link. The user
// record itself is untouched. A delivery failure is logged but the code stays
// valid.
func (s *service) RequestPasswordReset(ctx context.Context, req domain.ResetPasswordRequest) error {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("invalid email: %w", domain.ErrUnauthorized)
	}
	code, err := pkgtoken.NewCode()
	if err != nil {
		return err
	}
	c := &domain.EmailCode{
		Code:      code,
		UserID:    u.UserID,
		Purpose:   domain.CodePurposeReset,
		ExpiresAt: time.Now().Add(s.codeTTL).Unix(),
	}
	if err := s.codeRepo.Put(ctx, c); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/%s", strings.TrimRight(req.FrontBaseURL, "/"), code)
	html := fmt.Sprintf(`<h1>Reset Password</h1>
<p>Click the link below to reset your password:</p>
<p><a href="%s">%s</a></p>`, link, link)
	if err := s.mailer.SendEmail(u.Email, "Reset Password", html); err != nil {
		slog.Warn("failed to send reset email", "user_id", u.UserID, "err", err)
	}
	return nil
}

// ConfirmPasswordReset rotates the password hash and deletes the code in one
// transaction.
func (s *service) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	c, err := s.lookupCode(ctx, code, domain.CodePurposeReset)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.codeRepo.Redeem(ctx, c.Code, c.UserID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
		}
		return err
	}
	return nil
}

// lookupCode fetches a code and checks purpose and expiry. Every failure mode
// collapses into the same unauthorized "invalid code" so the response does not
// reveal whether a code ever existed.
func (s *service) lookupCode(ctx context.Context, code, purpose string) (*domain.EmailCode, error) {
	c, err := s.codeRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	if c.Purpose != purpose {
		return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	// DynamoDB TTL deletion is lazy; enforce expiry here as well.
	if c.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	}
	return c, nil
}
