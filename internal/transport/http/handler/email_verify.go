package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-user-api/internal/application/auth"
)

// EmailVerifyHandler handles verification-code redemption.
type EmailVerifyHandler struct {
	svc auth.Service
}

func NewEmailVerifyHandler(svc auth.Service) *EmailVerifyHandler {
	return &EmailVerifyHandler{svc: svc}
}

func (h *EmailVerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.VerifyEmail(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
