package http

import (
	"errors"
	"net/http"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/log"
)

// requireAuth resolves the bearer token and stores the identity on the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}
		id, err := s.deps.Auth.Verify(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := auth.WithIdentity(r.Context(), id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldOwnerID, id.UID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerID returns the authenticated user id. Routes behind requireAuth
// always have one.
func ownerID(r *http.Request) (string, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok || id.UID == "" {
		return "", core.ErrUnauthenticated
	}
	return id.UID, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.deps.Auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			writeJSON(w, http.StatusConflict, errorBody{Error: "email already registered"})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid email or password"})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, identityResponse{UID: id.UID, Email: id.Email})
}

func newSessionResponse(s auth.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: timestamp(s.ExpiresAt),
		UID:       s.Identity.UID,
		Email:     s.Identity.Email,
	}
}
