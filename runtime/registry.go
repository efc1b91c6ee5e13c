package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"pajal/contract"
	"pajal/domain"
	"pajal/domain/event"
	"pajal/errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry owns the authoritative collection of class sessions, kept sorted
// by start time. Every mutation validates first and commits second; events
// are handed to the sinks only after the mutation is committed.
type Registry struct {
	mu         sync.RWMutex
	log        *slog.Logger
	classes    []domain.ClassSession
	sinks      []contract.EventSink
	leadTime   time.Duration
	soonWindow time.Duration
	location   *time.Location
}

func NewRegistry(log *slog.Logger, leadTime, soonWindow time.Duration, location *time.Location) *Registry {
	if location == nil {
		location = time.Local
	}
	return &Registry{
		log:        log,
		leadTime:   leadTime,
		soonWindow: soonWindow,
		location:   location,
	}
}

func (r *Registry) RegisterSinks(sinks ...contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, sinks...)
}

// Replace swaps the whole collection, used when state is loaded.
func (r *Registry) Replace(classes []domain.ClassSession) {
	sorted := make([]domain.ClassSession, len(classes))
	for i, c := range classes {
		c.Start, c.End = c.Start.In(r.location), c.End.In(r.location)
		sorted[i] = c
	}
	domain.SortByStart(sorted)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes = sorted
}

func (r *Registry) All() []domain.ClassSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.ClassSession(nil), r.classes...)
}

func (r *Registry) Get(id string) (domain.ClassSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Find(r.classes, func(c domain.ClassSession) bool { return c.ID == id })
}

// Create schedules a new class taught by lecturer alone.
func (r *Registry) Create(in domain.ClassInput, lecturer string, now time.Time) (domain.ClassSession, error) {
	in = r.local(in)
	if err := domain.ValidateClassInput(in); err != nil {
		return domain.ClassSession{}, err
	}
	switch r.checkTiming(in.Start, now) {
	case errors.ErrPastSchedule:
		return domain.ClassSession{}, errors.Reject(errors.ErrPastSchedule,
			"Tidak dapat menjadwalkan kelas \"%s\" pada waktu yang sudah berlalu.", in.Name)
	case errors.ErrLeadTime:
		return domain.ClassSession{}, errors.Reject(errors.ErrLeadTime,
			"Kelas \"%s\" harus dijadwalkan minimal %d menit dari sekarang.", in.Name, r.leadMinutes())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := domain.CheckConflict(in.Slot(), r.classes, lecturer); err != nil {
		return domain.ClassSession{}, err
	}
	session := r.newSession(in, lecturer, now)
	r.classes = append(r.classes, session)
	domain.SortByStart(r.classes)
	return session, nil
}

// BatchRow is one submitted candidate and the row number it is reported under.
type BatchRow struct {
	Row   int               `json:"row"`
	Input domain.ClassInput `json:"input"`
}

type BatchResult struct {
	SuccessCount int                   `json:"successCount"`
	Errors       []string              `json:"errors"`
	Created      []domain.ClassSession `json:"created"`
}

// CreateBatch applies the Create rules row by row. Accepted rows join the
// comparison set for the following rows; rejected rows are reported and
// skipped without aborting the rest.
func (r *Registry) CreateBatch(rows []BatchRow, lecturer string, now time.Time) BatchResult {
	result := BatchResult{Errors: []string{}}

	r.mu.Lock()
	defer r.mu.Unlock()

	comparison := append([]domain.ClassSession(nil), r.classes...)
	for _, row := range rows {
		in := r.local(row.Input)
		if err := domain.ValidateClassInput(in); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Baris %d (%s): %s", row.Row, in.Name, err))
			continue
		}
		switch r.checkTiming(in.Start, now) {
		case errors.ErrPastSchedule:
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Baris %d: Kelas \"%s\" dijadwalkan pada waktu yang sudah berlalu.", row.Row, in.Name))
			continue
		case errors.ErrLeadTime:
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Baris %d: Kelas \"%s\" harus dijadwalkan minimal %d menit dari sekarang.", row.Row, in.Name, r.leadMinutes()))
			continue
		}
		if err := domain.CheckConflict(in.Slot(), comparison, lecturer); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Baris %d (%s): %s", row.Row, in.Name, err))
			continue
		}
		session := r.newSession(in, lecturer, now)
		comparison = append(comparison, session)
		result.Created = append(result.Created, session)
		result.SuccessCount++
	}

	if len(result.Created) > 0 {
		r.classes = append(r.classes, result.Created...)
		domain.SortByStart(r.classes)
	}
	return result
}

// Edit replaces the mutable fields of a session and reports what changed.
func (r *Registry) Edit(ctx context.Context, id string, in domain.ClassInput, lecturer string, now time.Time) (domain.ClassSession, error) {
	in = r.local(in)
	if err := domain.ValidateClassInput(in); err != nil {
		return domain.ClassSession{}, err
	}
	switch r.checkTiming(in.Start, now) {
	case errors.ErrPastSchedule:
		return domain.ClassSession{}, errors.Reject(errors.ErrPastSchedule,
			"Tidak dapat menjadwalkan kelas pada waktu yang sudah berlalu.")
	case errors.ErrLeadTime:
		return domain.ClassSession{}, errors.Reject(errors.ErrLeadTime,
			"Kelas harus dijadwalkan minimal %d menit dari sekarang.", r.leadMinutes())
	}

	r.mu.Lock()
	_, index, found := lo.FindIndexOf(r.classes, func(c domain.ClassSession) bool { return c.ID == id })
	if !found {
		r.mu.Unlock()
		return domain.ClassSession{}, errors.Reject(errors.ErrClassNotFound, "Kelas tidak ditemukan.")
	}
	if err := domain.CheckConflict(in.Slot(), r.classes, lecturer, id); err != nil {
		r.mu.Unlock()
		return domain.ClassSession{}, err
	}

	before := r.classes[index]
	changes, noteChanged := domain.DetectChanges(before, in, r.location)

	updated := before
	updated.Name = in.Name
	updated.ClassTypes = append([]string(nil), in.ClassTypes...)
	updated.Start = in.Start
	updated.End = in.End
	updated.Location = in.Location
	updated.Note = in.Note
	updated.Status = updated.Refresh(now, r.soonWindow)

	r.classes[index] = updated
	domain.SortByStart(r.classes)
	r.mu.Unlock()

	lifecycle := event.Lifecycle{Class: updated.ID, ClassName: updated.Name, At: now}
	switch {
	case len(changes) > 0:
		r.emit(ctx, event.ClassEdited{Lifecycle: lifecycle, Changes: changes})
	case noteChanged:
		r.emit(ctx, event.ClassNoteChanged{Lifecycle: lifecycle})
	}
	return updated, nil
}

// Cancel moves a session to Batal and emits the cancellation right away.
// Terminal sessions are left alone and reported as unchanged.
func (r *Registry) Cancel(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	_, index, found := lo.FindIndexOf(r.classes, func(c domain.ClassSession) bool { return c.ID == id })
	if !found {
		r.mu.Unlock()
		return false, errors.Reject(errors.ErrClassNotFound, "Kelas tidak ditemukan.")
	}
	if r.classes[index].Status.IsTerminal() {
		r.mu.Unlock()
		return false, nil
	}
	r.classes[index].Status = domain.Batal
	cancelled := r.classes[index]
	r.mu.Unlock()

	r.emit(ctx, event.ClassCancelled{Lifecycle: event.Lifecycle{Class: cancelled.ID, ClassName: cancelled.Name, At: now}})
	return true, nil
}

// CancelMany cancels every non-terminal session in ids and returns how many changed.
func (r *Registry) CancelMany(ctx context.Context, ids []string, now time.Time) int {
	wanted := domain.NewIDSet(ids...)
	var events []event.DomainEvent

	r.mu.Lock()
	for i, c := range r.classes {
		if !wanted.Has(c.ID) || c.Status.IsTerminal() {
			continue
		}
		r.classes[i].Status = domain.Batal
		events = append(events, event.ClassCancelled{Lifecycle: event.Lifecycle{Class: c.ID, ClassName: c.Name, At: now}})
	}
	r.mu.Unlock()

	r.emit(ctx, events...)
	return len(events)
}

// RecomputeAll runs the status engine over every non-terminal session,
// commits all changes at once and emits one event per transition into
// Aktif or Selesai.
func (r *Registry) RecomputeAll(ctx context.Context, now time.Time) []event.DomainEvent {
	var events []event.DomainEvent

	r.mu.Lock()
	updated := make([]domain.ClassSession, len(r.classes))
	for i, c := range r.classes {
		updated[i] = c
		next := c.Refresh(now, r.soonWindow)
		if next == c.Status {
			continue
		}
		updated[i].Status = next
		lifecycle := event.Lifecycle{Class: c.ID, ClassName: c.Name, At: now}
		switch next {
		case domain.Aktif:
			events = append(events, event.ClassStarted{Lifecycle: lifecycle})
		case domain.Selesai:
			events = append(events, event.ClassEnded{Lifecycle: lifecycle})
		}
	}
	r.classes = updated
	r.mu.Unlock()

	r.emit(ctx, events...)
	return events
}

// PurgeLecturer removes every session taught by name. Used when the
// lecturer's account is deleted.
func (r *Registry) PurgeLecturer(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	r.classes = lo.Filter(r.classes, func(c domain.ClassSession, _ int) bool {
		if c.HasLecturer(name) {
			removed = append(removed, c.ID)
			return false
		}
		return true
	})
	return removed
}

// RenameLecturer follows a display name change into every lecturer list.
func (r *Registry) RenameLecturer(oldName, newName string) int {
	if oldName == newName {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	renamed := 0
	for i := range r.classes {
		if !r.classes[i].HasLecturer(oldName) {
			continue
		}
		// Snapshots share the old slice.
		lecturers := slices.Clone(r.classes[i].Lecturers)
		for j, lecturer := range lecturers {
			if domain.NormalizeName(lecturer) == domain.NormalizeName(oldName) {
				lecturers[j] = newName
				renamed++
			}
		}
		r.classes[i].Lecturers = lecturers
	}
	return renamed
}

// local moves the submitted slot into the schedule's time zone, so calendar
// dates do not depend on the offset the client sent.
func (r *Registry) local(in domain.ClassInput) domain.ClassInput {
	in.Start, in.End = in.Start.In(r.location), in.End.In(r.location)
	return in
}

// checkTiming returns ErrPastSchedule, ErrLeadTime or nil.
func (r *Registry) checkTiming(start, now time.Time) error {
	if start.Before(now) {
		return errors.ErrPastSchedule
	}
	if start.Sub(now) < r.leadTime {
		return errors.ErrLeadTime
	}
	return nil
}

func (r *Registry) leadMinutes() int {
	return int(r.leadTime / time.Minute)
}

func (r *Registry) newSession(in domain.ClassInput, lecturer string, now time.Time) domain.ClassSession {
	session := domain.ClassSession{
		ID:         fmt.Sprintf("%s-%d-%s", strings.Join(strings.Fields(in.Name), ""), now.UnixMilli(), uuid.NewString()[:8]),
		Name:       in.Name,
		ClassTypes: append([]string(nil), in.ClassTypes...),
		Start:      in.Start,
		End:        in.End,
		Location:   in.Location,
		Lecturers:  []string{lecturer},
		Note:       in.Note,
		CreatedAt:  now,
		Status:     domain.Belum,
	}
	session.Status = session.StatusAt(now, r.soonWindow)
	return session
}

func (r *Registry) emit(ctx context.Context, events ...event.DomainEvent) {
	r.mu.RLock()
	sinks := append([]contract.EventSink(nil), r.sinks...)
	r.mu.RUnlock()

	for _, evt := range events {
		for _, sink := range sinks {
			if err := sink.Consume(ctx, evt); err != nil {
				r.log.Warn("Sink failed to consume class event", "class", evt.ClassID(), "error", err)
			}
		}
	}
}
