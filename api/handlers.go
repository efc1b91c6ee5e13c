package api

import (
	"io"
	"net/http"
	"pajal/domain"
	"pajal/errors"
	"pajal/runtime"
	"time"

	"github.com/gorilla/mux"
)

const maxPictureSize = 5 << 20

func userID(r *http.Request) string {
	return r.Header.Get(UserHeader)
}

type clockResponse struct {
	Now time.Time `json:"now"`
}

type tickRequest struct {
	Step string `json:"step"`
}

type jumpRequest struct {
	To time.Time `json:"to"`
}

func (s *Server) GetClock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, clockResponse{Now: s.core.Now()})
}

// TickClock advances the clock by step, one second when omitted.
func (s *Server) TickClock(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step := time.Second
	if req.Step != "" {
		parsed, err := time.ParseDuration(req.Step)
		if err != nil || parsed <= 0 {
			s.writeError(w, r, errors.Reject(errors.ErrInvalidInput, "Langkah waktu tidak valid."))
			return
		}
		step = parsed
	}
	writeJSON(w, http.StatusOK, clockResponse{Now: s.core.Tick(r.Context(), step)})
}

func (s *Server) JumpClock(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	now, err := s.core.Jump(r.Context(), req.To)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clockResponse{Now: now})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.core.Register(req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUser(user))
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.core.Login(req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.core.Account(userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.core.UpdateProfile(userID(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) SetPicture(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPictureSize+1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(data) > maxPictureSize {
		s.writeError(w, r, errors.Reject(errors.ErrInvalidPicture, "Ukuran gambar terlalu besar."))
		return
	}
	user, err := s.core.SetProfilePicture(userID(r), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) GetPicture(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.core.ProfilePicture(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.core.Preferences(userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

type reminderRequest struct {
	Minutes *int `json:"minutes"`
}

func (s *Server) SetReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.core.SetReminder(userID(r), req.Minutes); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetReminders(w http.ResponseWriter, r *http.Request) {
	reminders := s.core.Reminders(userID(r))
	if reminders == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}

type usageResponse struct {
	Users        []userResponse `json:"users"`
	LoginHistory []string       `json:"loginHistory"`
}

func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.core.Usage(userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Users: toUsers(usage.Users), LoginHistory: usage.LoginHistory})
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.core.UpdateUser(userID(r), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) ToggleSuspend(w http.ResponseWriter, r *http.Request) {
	user, err := s.core.ToggleSuspend(userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.core.DeleteUser(userID(r), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetClasses(w http.ResponseWriter, r *http.Request) {
	view, err := s.core.Classes(userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) GetClass(w http.ResponseWriter, r *http.Request) {
	session, err := s.core.Class(userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) SearchClasses(w http.ResponseWriter, r *http.Request) {
	found, err := s.core.Search(r.Context(), userID(r), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) AddClass(w http.ResponseWriter, r *http.Request) {
	var in domain.ClassInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.core.AddClass(userID(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) AddClasses(w http.ResponseWriter, r *http.Request) {
	var rows []runtime.BatchRow
	if err := decode(r, &rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.core.AddClasses(userID(r), rows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) EditClass(w http.ResponseWriter, r *http.Request) {
	var in domain.ClassInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.core.EditClass(r.Context(), userID(r), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) CancelClass(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.CancelClass(r.Context(), userID(r), mux.Vars(r)["id"]))
}

func (s *Server) HideClass(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.HideClass(r.Context(), userID(r), mux.Vars(r)["id"]))
}

func (s *Server) ArchiveClass(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.ArchiveClass(userID(r), mux.Vars(r)["id"]))
}

func (s *Server) RestoreClass(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.RestoreClass(userID(r), mux.Vars(r)["id"]))
}

func (s *Server) DeleteArchived(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.DeleteArchived(userID(r), mux.Vars(r)["id"]))
}

type selectionResponse struct {
	Selected []string `json:"selected"`
}

func (s *Server) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	selected, err := s.core.ToggleSelection(userID(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Selected: selected})
}

type selectionRequest struct {
	Action runtime.BulkAction `json:"action"`
}

type affectedResponse struct {
	Affected int `json:"affected"`
}

func (s *Server) ApplySelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	affected, err := s.core.ApplyToSelection(r.Context(), userID(r), req.Action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func (s *Server) GetNotifications(w http.ResponseWriter, r *http.Request) {
	feed, err := s.core.Notifications(userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) MarkRead(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.MarkNotificationRead(userID(r), mux.Vars(r)["id"]))
}

func (s *Server) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.MarkAllNotificationsRead(userID(r)))
}

func (s *Server) DeleteNotifications(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, r, s.core.DeleteAllNotifications(userID(r)))
}

func (s *Server) noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
