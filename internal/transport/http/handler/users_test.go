package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-user-api/internal/config"
	"github.com/go-user-api/internal/domain"
	jwtinfra "github.com/go-user-api/internal/infrastructure/jwt"
	"github.com/go-user-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func (m *mockUserSvc) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserSvc) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserSvc) UploadImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*domain.User, error) {
	args := m.Called(ctx, userID, r, filename, contentType)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{
		TokenSecret: "handler-test-secret",
		TokenExpiry: 24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given user.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target string, u *domain.User, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(u)
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

func validRegisterBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(domain.CreateUserRequest{
		Email:        "a@x.com",
		Password:     "secret123",
		FirstName:    "A",
		LastName:     "B",
		Country:      "US",
		FrontBaseURL: "https://app.example.com/verify",
	})
	require.NoError(t, err)
	return body
}

// --- Register ---

func TestRegister_InvalidBody(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	r := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_ValidationFailure(t *testing.T) {
	h := NewUserHandler(&mockUserSvc{})
	body, _ := json.Marshal(domain.CreateUserRequest{Email: "a@x.com"}) // missing required fields
	r := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRegister_Conflict(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)
	h := NewUserHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(validRegisterBody(t)))
	rr := httptest.NewRecorder()
	h.Register(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
	svc.AssertExpectations(t)
}

func TestRegister_HappyPath_NoHashInResponse(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(&domain.User{
		UserID:       "u1",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$secret",
		FirstName:    "A",
		LastName:     "B",
		Country:      "US",
	}, nil)
	h := NewUserHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(validRegisterBody(t)))
	rr := httptest.NewRecorder()
	h.Register(rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret")
	var u domain.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
	assert.Equal(t, "u1", u.UserID)
	assert.False(t, u.IsVerified)
}

// --- List ---

func TestList_ReturnsArray(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("List", mock.Anything).Return([]domain.User{{UserID: "u1"}, {UserID: "u2"}}, nil)
	h := NewUserHandler(svc)
	r := httptest.NewRequest(http.MethodGet, "/users", nil)
	rr := httptest.NewRecorder()
	h.List(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var users []domain.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
	assert.Len(t, users, 2)
}

func TestList_EmptyIsJSONArray(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("List", mock.Anything).Return([]domain.User(nil), nil)
	h := NewUserHandler(svc)
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/users", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

// --- Get ---

func TestGet_NotFound(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	h := NewUserHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodGet, "/users/missing", nil), "id", "missing")
	rr := httptest.NewRecorder()
	h.Get(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Me ---

func TestMe_EchoesTokenIdentity(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})
	u := &domain.User{UserID: "u1", Email: "a@x.com", IsVerified: true}

	r := bearerReq(t, p, http.MethodGet, "/users/me", u, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Me), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got domain.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "a@x.com", got.Email)
}

func TestMe_NoToken(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewUserHandler(&mockUserSvc{})
	r := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Me), rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// --- Update ---

func TestUpdate_NotFound(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Update", mock.Anything, "missing", mock.Anything).Return(nil, domain.ErrNotFound)
	h := NewUserHandler(svc)
	body, _ := json.Marshal(map[string]string{"first_name": "New"})
	r := withChiParam(httptest.NewRequest(http.MethodPut, "/users/missing", bytes.NewReader(body)), "id", "missing")
	rr := httptest.NewRecorder()
	h.Update(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Delete ---

func TestDelete_NoContent(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "u1").Return(nil)
	h := NewUserHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodDelete, "/users/u1", nil), "id", "u1")
	rr := httptest.NewRecorder()
	h.Delete(rr, r)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestDelete_NotFound(t *testing.T) {
	svc := &mockUserSvc{}
	svc.On("Delete", mock.Anything, "missing").Return(domain.ErrNotFound)
	h := NewUserHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodDelete, "/users/missing", nil), "id", "missing")
	rr := httptest.NewRecorder()
	h.Delete(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
