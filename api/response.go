package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"pajal/domain"
	"pajal/errors"
)

type errorBody struct {
	Error string `json:"error"`
}

// userResponse hides the password hash of the embedded account.
type userResponse struct {
	domain.UserAccount
	PasswordHash string `json:"passwordHash,omitempty"`
}

func toUser(u domain.UserAccount) userResponse {
	return userResponse{UserAccount: u}
}

func toUsers(users []domain.UserAccount) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func statusOf(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrUserNotFound), stderrors.Is(err, errors.ErrClassNotFound),
		stderrors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrAccessDenied), stderrors.Is(err, errors.ErrNotLecturer):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrInvalidCredentials), stderrors.Is(err, errors.ErrAccountSuspended):
		return http.StatusUnauthorized
	}
	var rejection errors.Rejection
	if stderrors.As(err, &rejection) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "Terjadi kesalahan pada server."
	}
	writeJSON(w, status, errorBody{Error: message})
}

func decode(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.Reject(errors.ErrInvalidInput, "Permintaan tidak valid.")
	}
	return nil
}
