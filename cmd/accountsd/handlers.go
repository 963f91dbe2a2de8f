package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/verimail/accounts"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// handlers holds the dependencies of the HTTP surface.
type handlers struct {
	accounts *accounts.Accounts
	logger   *slog.Logger
}

// routes builds the router.
func (h *handlers) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/users", h.createUser)
	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/emails", h.addEmail)
		r.Delete("/emails/{address}", h.removeEmail)
		r.Post("/verification-emails", h.sendVerification)
		r.Post("/reset-emails", h.sendReset)
		r.Post("/enrollment-emails", h.sendEnrollment)
	})
	r.Post("/verify-email", h.verifyEmail)
	r.Post("/reset-tokens/consume", h.consumeResetToken)

	return r
}

func (h *handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}

	userID, err := h.accounts.CreateUser(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"userId": userID.Hex()})
}

func (h *handlers) addEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Address  string `json:"address"`
		Verified bool   `json:"verified"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := h.accounts.AddEmail(r.Context(), userID, req.Address, req.Verified); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) removeEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.accounts.RemoveEmail(r.Context(), userID, chi.URLParam(r, "address")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) sendVerification(w http.ResponseWriter, r *http.Request) {
	h.sendMail(w, r, h.accounts.SendVerificationEmail)
}

func (h *handlers) sendReset(w http.ResponseWriter, r *http.Request) {
	h.sendMail(w, r, h.accounts.SendResetPasswordEmail)
}

func (h *handlers) sendEnrollment(w http.ResponseWriter, r *http.Request) {
	h.sendMail(w, r, h.accounts.SendEnrollmentEmail)
}

func (h *handlers) sendMail(w http.ResponseWriter, r *http.Request,
	send func(ctx context.Context, userID bson.ObjectID, address string) error) {

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	// The body is optional: without an address the flow picks a default.
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := send(r.Context(), userID, req.Address); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &req) {
		return
	}

	userID, err := h.accounts.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	// Establishing a session for userID is left to the deployment.
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID.Hex()})
}

func (h *handlers) consumeResetToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &req) {
		return
	}

	userID, email, err := h.accounts.ConsumeResetToken(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID.Hex(), "email": email})
}

// userIDParam parses the {id} route parameter. On failure it writes a
// 400 response and returns ok=false.
func userIDParam(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	userID, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return bson.ObjectID{}, false
	}
	return userID, true
}

// decode reads the JSON request body into v. On failure it writes a 400
// response and returns false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusForError maps the accounts error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, accounts.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, accounts.ErrUserNotFound),
		errors.Is(err, accounts.ErrNoSuchAddress):
		return http.StatusNotFound
	case accounts.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrLinkExpired),
		errors.Is(err, accounts.ErrUnknownAddress):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
