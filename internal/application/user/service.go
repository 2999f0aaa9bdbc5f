package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/go-user-api/internal/domain"
	"github.com/go-user-api/internal/pkg/id"
	pkgtoken "github.com/go-user-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail     = "email"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldCountry   = "country"
	fieldImage     = "image"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
	UploadImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Scan(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
}

type codeStore interface {
	Put(ctx context.Context, c *domain.EmailCode) error
}

type mailSender interface {
	SendEmail(to, subject, html string) error
}

type avatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo     userStore
	codeRepo codeStore
	mailer   mailSender
	avatars  avatarStore
	codeTTL  time.Duration
}

type ServiceDeps struct {
	UserRepo    userStore
	CodeRepo    codeStore
	Mailer      mailSender
	AvatarStore avatarStore
	CodeTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		codeRepo: deps.CodeRepo,
		mailer:   deps.Mailer,
		avatars:  deps.AvatarStore,
		codeTTL:  deps.CodeTTL,
	}
}

// Register creates the user unverified, persists a verification code and mails
// the verification link. The mail fan-out is best-effort: a delivery failure is
// logged but never rolls back the user or the code.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Country:      req.Country,
		Image:        req.Image,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}

	code, err := pkgtoken.NewCode()
	if err != nil {
		return nil, err
	}
	c := &domain.EmailCode{
		Code:      code,
		UserID:    u.UserID,
		Purpose:   domain.CodePurposeVerify,
		ExpiresAt: now.Add(s.codeTTL).Unix(),
	}
	if err := s.codeRepo.Put(ctx, c); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/%s", strings.TrimRight(req.FrontBaseURL, "/"), code)
	html := fmt.Sprintf(`<h1>Hi %s %s</h1>
<p><a href="%s">%s</a></p>
<p><b>Code:</b> %s</p>
<b>Thanks for signing up</b>`, u.FirstName, u.LastName, link, link, code)
	if err := s.mailer.SendEmail(u.Email, "Verify email for user app", html); err != nil {
		slog.Warn("failed to send verification email", "user_id", u.UserID, "err", err)
	}
	return u, nil
}

func (s *service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Email != nil {
		updates[fieldEmail] = *req.Email
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Country != nil {
		updates[fieldCountry] = *req.Country
	}
	if req.Image != nil {
		updates[fieldImage] = *req.Image
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// Delete removes the user and, best-effort, their stored avatar object.
func (s *service) Delete(ctx context.Context, userID string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	if u.Image != nil {
		if key, ok := avatarKey(*u.Image); ok {
			if err := s.avatars.Delete(ctx, key); err != nil {
				slog.Warn("failed to delete avatar", "user_id", userID, "key", key, "err", err)
			}
		}
	}
	return nil
}

// avatarKey extracts the object key from an s3:// URL. External image URLs
// are left alone.
func avatarKey(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", false
	}
	_, key, ok := strings.Cut(rest, "/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (s *service) UploadImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*domain.User, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("avatars/%s/%s", userID, sanitizeFilename(filename))
	url, err := s.avatars.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldImage: url}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// sanitizeFilename strips any path components and rejects empty names.
func sanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "avatar"
	}
	return base
}
