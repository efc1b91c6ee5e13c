// Package projection builds per-user views from class events and state.
// Handles ordering, deduplication, and filtering.
// Does not mutate class records.
package projection

import (
	"context"
	"log/slog"
	"pajal/domain"
	"pajal/domain/event"
	"sync"
	"time"

	"github.com/samber/lo"
)

// NotificationFeed derives notifications from class lifecycle events and
// keeps them newest first. Records only ever grow their ReadBy and
// DeletedBy sets.
type NotificationFeed struct {
	mu    sync.RWMutex
	log   *slog.Logger
	items []domain.Notification
	ids   domain.IDSet
}

func NewNotificationFeed(log *slog.Logger) *NotificationFeed {
	return &NotificationFeed{
		log: log,
		ids: domain.NewIDSet(),
	}
}

func (f *NotificationFeed) Consume(_ context.Context, e event.DomainEvent) error {
	n, ok := fromEvent(e)
	if !ok {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids.Has(n.ID) {
		f.log.Debug("Duplicate notification dropped", "id", n.ID)
		return nil
	}
	f.ids.Add(n.ID)
	f.items = append([]domain.Notification{n}, f.items...)
	domain.SortNewestFirst(f.items)
	return nil
}

func fromEvent(e event.DomainEvent) (domain.Notification, bool) {
	var kind domain.NotificationKind
	var message string
	var name string

	switch evt := e.(type) {
	case event.ClassStarted:
		kind, name, message = domain.KindStarted, evt.ClassName, domain.StartedMessage(evt.ClassName)
	case event.ClassEnded:
		kind, name, message = domain.KindEnded, evt.ClassName, domain.EndedMessage(evt.ClassName)
	case event.ClassCancelled:
		kind, name, message = domain.KindCancelled, evt.ClassName, domain.CancelledMessage(evt.ClassName)
	case event.ClassEdited:
		kind, name = domain.KindEdited, evt.ClassName
		message = domain.ChangedMessage(evt.ClassName, domain.JoinPhrases(evt.Changes))
	case event.ClassNoteChanged:
		kind, name = domain.KindNote, evt.ClassName
		message = domain.ChangedMessage(evt.ClassName, domain.ChangeNote)
	default:
		return domain.Notification{}, false
	}

	return domain.Notification{
		ID:        domain.NotificationID(e.ClassID(), kind, e.OccurredAt()),
		Kind:      kind,
		ClassID:   e.ClassID(),
		ClassName: name,
		Message:   message,
		Date:      e.OccurredAt(),
		ReadBy:    []string{},
		DeletedBy: []string{},
	}, true
}

// All returns a copy of every notification, newest first.
func (f *NotificationFeed) All() []domain.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return lo.Map(f.items, func(n domain.Notification, _ int) domain.Notification {
		n.ReadBy = append([]string(nil), n.ReadBy...)
		n.DeletedBy = append([]string(nil), n.DeletedBy...)
		return n
	})
}

// Replace loads a stored feed, dropping duplicate ids.
func (f *NotificationFeed) Replace(items []domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = domain.NewIDSet()
	f.items = lo.Filter(items, func(n domain.Notification, _ int) bool {
		if f.ids.Has(n.ID) {
			return false
		}
		f.ids.Add(n.ID)
		return true
	})
	domain.SortNewestFirst(f.items)
}

// MarkRead records userID as a reader of every listed notification and
// returns how many records changed.
func (f *NotificationFeed) MarkRead(userID string, ids ...string) int {
	return f.update(ids, func(n *domain.Notification) bool { return n.MarkRead(userID) })
}

// Delete hides the listed notifications for userID only.
func (f *NotificationFeed) Delete(userID string, ids ...string) int {
	return f.update(ids, func(n *domain.Notification) bool { return n.MarkDeleted(userID) })
}

func (f *NotificationFeed) update(ids []string, apply func(n *domain.Notification) bool) int {
	wanted := domain.NewIDSet(ids...)
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := 0
	for i := range f.items {
		if wanted.Has(f.items[i].ID) && apply(&f.items[i]) {
			changed++
		}
	}
	return changed
}

// CancellationTimes maps class ids to the earliest cancellation notification.
func (f *NotificationFeed) CancellationTimes() map[string]time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	times := make(map[string]time.Time)
	for _, n := range f.items {
		if n.Kind != domain.KindCancelled {
			continue
		}
		if at, ok := times[n.ClassID]; !ok || n.Date.Before(at) {
			times[n.ClassID] = n.Date
		}
	}
	return times
}
