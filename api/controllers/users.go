package controllers

import (
	"net/http"

	"github.com/mateovidal/storelane-backend/api/responses"
	usersvc "github.com/mateovidal/storelane-backend/internal/users"
	"github.com/mateovidal/storelane-backend/pkg/logger"
)

type userListResponse struct {
	Users      any    `json:"users"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Me returns the authenticated user's profile.
func Me(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

func AdminListUsers(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		users, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, userListResponse{Users: users, NextCursor: next})
	}
}
