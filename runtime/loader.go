package runtime

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"pajal/auth"
	"pajal/domain"
	"pajal/repositories"
	"strings"
	"time"

	"github.com/samber/lo"
)

//go:embed seed/*
var seedFolder embed.FS

type seedUser struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	NimNip    string      `json:"nim_nip"`
	ClassType string      `json:"classType"`
	Password  string      `json:"password"`
}

// seedClass is scheduled relative to the moment the seed is applied.
type seedClass struct {
	Name       string   `json:"name"`
	ClassTypes []string `json:"classTypes"`
	StartIn    string   `json:"startIn"`
	Duration   string   `json:"duration"`
	Location   string   `json:"location"`
	Lecturer   string   `json:"lecturer"`
	Note       string   `json:"note"`
}

type seedFile struct {
	Users   []seedUser  `json:"users"`
	Classes []seedClass `json:"classes"`
}

// StateLoader reads persisted state and falls back to the embedded seed
// when nothing usable is stored.
type StateLoader struct {
	log         *slog.Logger
	repository  repositories.IStateRepository
	hasher      auth.Hasher
	fs          embed.FS
	seedOnEmpty bool
	soonWindow  time.Duration
}

func NewStateLoader(log *slog.Logger, repository repositories.IStateRepository, hasher auth.Hasher, seedOnEmpty bool, soonWindow time.Duration) *StateLoader {
	return &StateLoader{
		log:         log,
		repository:  repository,
		hasher:      hasher,
		fs:          seedFolder,
		seedOnEmpty: seedOnEmpty,
		soonWindow:  soonWindow,
	}
}

// Load never fails: storage errors are logged and replaced by the seed.
func (l *StateLoader) Load(now time.Time) repositories.State {
	state, err := l.repository.LoadState()
	if err != nil {
		l.log.Error("Failed to load state, using seed data", "error", err)
		return l.seedOrEmpty(now)
	}
	if state.Empty() && l.seedOnEmpty {
		l.log.Info("No stored state, using seed data")
		return l.seedOrEmpty(now)
	}
	if state.Preferences == nil {
		state.Preferences = make(map[string]domain.Preferences)
	}
	l.log.Info(fmt.Sprintf("State loaded: %d classes, %d notifications, %d users",
		len(state.Classes), len(state.Notifications), len(state.Users)))
	return state
}

func (l *StateLoader) seedOrEmpty(now time.Time) repositories.State {
	state, err := l.Seed(now)
	if err != nil {
		l.log.Error("Failed to build seed data", "error", err)
		return repositories.State{Preferences: make(map[string]domain.Preferences)}
	}
	return state
}

// Seed builds the initial accounts and sessions around now.
func (l *StateLoader) Seed(now time.Time) (repositories.State, error) {
	data, err := l.fs.ReadFile("seed/seed.json")
	if err != nil {
		return repositories.State{}, err
	}
	var file seedFile
	if err = json.Unmarshal(data, &file); err != nil {
		return repositories.State{}, fmt.Errorf("decoding seed: %w", err)
	}

	state := repositories.State{Preferences: make(map[string]domain.Preferences)}
	for _, u := range file.Users {
		hash, err := l.hasher.Hash(u.Password)
		if err != nil {
			return repositories.State{}, fmt.Errorf("hashing seed password of %s: %w", u.Username, err)
		}
		user := domain.UserAccount{
			ID:               u.ID,
			Name:             u.Name,
			Username:         u.Username,
			Role:             u.Role,
			NimNip:           u.NimNip,
			RegistrationDate: now,
			PasswordHash:     hash,
		}
		if u.ClassType != "" {
			user.ClassType = lo.ToPtr(u.ClassType)
		}
		user.State = user.SetupState()
		state.Users = append(state.Users, user)
	}

	for i, c := range file.Classes {
		startIn, err := time.ParseDuration(c.StartIn)
		if err != nil {
			return repositories.State{}, fmt.Errorf("seed class %q: %w", c.Name, err)
		}
		duration, err := time.ParseDuration(c.Duration)
		if err != nil {
			return repositories.State{}, fmt.Errorf("seed class %q: %w", c.Name, err)
		}
		start := now.Add(startIn).Truncate(time.Minute)
		session := domain.ClassSession{
			ID:         fmt.Sprintf("%s-seed-%d", strings.Join(strings.Fields(c.Name), ""), i+1),
			Name:       c.Name,
			ClassTypes: c.ClassTypes,
			Start:      start,
			End:        start.Add(duration),
			Location:   c.Location,
			Lecturers:  []string{c.Lecturer},
			Note:       c.Note,
			CreatedAt:  now,
		}
		session.Status = session.StatusAt(now, l.soonWindow)
		state.Classes = append(state.Classes, session)
	}
	domain.SortByStart(state.Classes)
	return state, nil
}
