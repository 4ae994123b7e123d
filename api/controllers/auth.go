package controllers

import (
	"net/http"

	"github.com/mateovidal/storelane-backend/api/middleware"
	"github.com/mateovidal/storelane-backend/api/responses"
	"github.com/mateovidal/storelane-backend/api/validators"
	authsvc "github.com/mateovidal/storelane-backend/internal/auth"
	cartsvc "github.com/mateovidal/storelane-backend/internal/cart"
	pkgerrors "github.com/mateovidal/storelane-backend/pkg/errors"
	"github.com/mateovidal/storelane-backend/pkg/logger"
)

// Register creates a new customer account and returns a logged-in session.
func Register(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload authsvc.RegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// Refresh rotates the refresh token and mints a fresh access token.
func Refresh(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload authsvc.RefreshRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, err := svc.Refresh(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pair)
	}
}

// Logout revokes the session and drops the shopper's cart. A cart that fails
// to clear is logged but does not block the logout.
func Logout(svc authsvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		if err := svc.Logout(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if userID, err := requireUserID(r); err == nil {
			if err := carts.Clear(r.Context(), userID); err != nil && logg != nil {
				logg.Error(r.Context(), "cart.clear_on_logout", err)
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
