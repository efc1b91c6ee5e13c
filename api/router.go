// Package api exposes the scheduling core over HTTP. The caller is named by
// the X-User-ID header; authentication beyond login is out of scope.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"pajal/runtime"

	"github.com/gorilla/mux"
)

const UserHeader = "X-User-ID"

type Server struct {
	log  *slog.Logger
	core *runtime.Orchestrator
}

func NewServer(log *slog.Logger, core *runtime.Orchestrator) *Server {
	return &Server{log: log, core: core}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	r.HandleFunc("/clock", s.GetClock).Methods(http.MethodGet)
	r.HandleFunc("/clock/tick", s.TickClock).Methods(http.MethodPost)
	r.HandleFunc("/clock/jump", s.JumpClock).Methods(http.MethodPost)

	r.HandleFunc("/register", s.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", s.Login).Methods(http.MethodPost)

	me := r.PathPrefix("/me").Subrouter()
	me.Use(s.requireUser)
	me.HandleFunc("", s.GetMe).Methods(http.MethodGet)
	me.HandleFunc("", s.UpdateMe).Methods(http.MethodPut)
	me.HandleFunc("/picture", s.SetPicture).Methods(http.MethodPut)
	me.HandleFunc("/preferences", s.GetPreferences).Methods(http.MethodGet)
	me.HandleFunc("/preferences/reminder", s.SetReminder).Methods(http.MethodPut)
	me.HandleFunc("/reminders", s.GetReminders).Methods(http.MethodGet)

	users := r.PathPrefix("/users").Subrouter()
	users.HandleFunc("/{id}/picture", s.GetPicture).Methods(http.MethodGet)
	admin := users.NewRoute().Subrouter()
	admin.Use(s.requireUser)
	admin.HandleFunc("", s.GetUsage).Methods(http.MethodGet)
	admin.HandleFunc("/{id}", s.UpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/{id}", s.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/{id}/suspend", s.ToggleSuspend).Methods(http.MethodPost)

	classes := r.PathPrefix("/classes").Subrouter()
	classes.Use(s.requireUser)
	classes.HandleFunc("", s.GetClasses).Methods(http.MethodGet)
	classes.HandleFunc("", s.AddClass).Methods(http.MethodPost)
	classes.HandleFunc("/batch", s.AddClasses).Methods(http.MethodPost)
	classes.HandleFunc("/search", s.SearchClasses).Methods(http.MethodGet)
	classes.HandleFunc("/selection", s.ApplySelection).Methods(http.MethodPost)
	classes.HandleFunc("/{id}", s.GetClass).Methods(http.MethodGet)
	classes.HandleFunc("/{id}", s.EditClass).Methods(http.MethodPut)
	classes.HandleFunc("/{id}/cancel", s.CancelClass).Methods(http.MethodPost)
	classes.HandleFunc("/{id}/hide", s.HideClass).Methods(http.MethodPost)
	classes.HandleFunc("/{id}/archive", s.ArchiveClass).Methods(http.MethodPost)
	classes.HandleFunc("/{id}/archive", s.DeleteArchived).Methods(http.MethodDelete)
	classes.HandleFunc("/{id}/restore", s.RestoreClass).Methods(http.MethodPost)
	classes.HandleFunc("/{id}/select", s.ToggleSelection).Methods(http.MethodPost)

	notifications := r.PathPrefix("/notifications").Subrouter()
	notifications.Use(s.requireUser)
	notifications.HandleFunc("", s.GetNotifications).Methods(http.MethodGet)
	notifications.HandleFunc("", s.DeleteNotifications).Methods(http.MethodDelete)
	notifications.HandleFunc("/read", s.MarkAllRead).Methods(http.MethodPost)
	notifications.HandleFunc("/{id}/read", s.MarkRead).Methods(http.MethodPost)

	return r
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(UserHeader) == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Silakan login terlebih dahulu."})
			return
		}
		next.ServeHTTP(w, r)
	})
}
