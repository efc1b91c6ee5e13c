// Package runtime wires the clock, the class registry, the notification feed
// and the accounts into one core. Every operation runs to completion under
// one lock, so the core behaves as a single logical thread.
package runtime

import (
	"context"
	"log/slog"
	"pajal/contract"
	"pajal/domain"
	"pajal/errors"
	"pajal/projection"
	"pajal/repositories"
	"pajal/services"
	"sync"
	"time"

	"github.com/samber/lo"
)

// maxPendingReminders bounds the alerts kept for a user who never polls.
const maxPendingReminders = 50

type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	clock      *Clock
	registry   *Registry
	feed       *projection.NotificationFeed
	accounts   *services.AccountService
	index      *repositories.ClassIndex
	repository repositories.IStateRepository
	prefs      map[string]domain.Preferences
	selection  map[string]domain.IDSet
	reminders  map[string][]projection.Reminder
	dirty      chan struct{}
	indexStale bool
}

var (
	_ contract.Ticker      = (*Orchestrator)(nil)
	_ contract.Snapshotter = (*Orchestrator)(nil)
)

func NewOrchestrator(
	log *slog.Logger,
	clock *Clock,
	registry *Registry,
	feed *projection.NotificationFeed,
	accounts *services.AccountService,
	index *repositories.ClassIndex,
	repository repositories.IStateRepository,
) *Orchestrator {
	registry.RegisterSinks(feed)
	return &Orchestrator{
		log:        log,
		clock:      clock,
		registry:   registry,
		feed:       feed,
		accounts:   accounts,
		index:      index,
		repository: repository,
		prefs:      make(map[string]domain.Preferences),
		selection:  make(map[string]domain.IDSet),
		reminders:  make(map[string][]projection.Reminder),
		dirty:      make(chan struct{}, 1),
		indexStale: true,
	}
}

// Load replaces the whole core state.
func (o *Orchestrator) Load(state repositories.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.Replace(state.Classes)
	o.feed.Replace(state.Notifications)
	o.accounts.Replace(state.Users, state.LoginHistory)
	o.prefs = make(map[string]domain.Preferences, len(state.Preferences))
	for id, p := range state.Preferences {
		o.prefs[id] = p
	}
	o.indexStale = true
}

// Snapshot copies the state to persist.
func (o *Orchestrator) Snapshot() repositories.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	prefs := make(map[string]domain.Preferences, len(o.prefs))
	for id, p := range o.prefs {
		prefs[id] = p
	}
	return repositories.State{
		Classes:       o.registry.All(),
		Notifications: o.feed.All(),
		Users:         o.accounts.All(),
		Preferences:   prefs,
		LoginHistory:  o.accounts.LoginHistory(),
	}
}

// Persist saves a snapshot. It is called by the persistence worker, never
// by an operation.
func (o *Orchestrator) Persist(_ context.Context) error {
	return o.repository.SaveState(o.Snapshot())
}

// Dirty signals that the state changed since the last snapshot. Signals
// coalesce: many changes before a save produce a single pending signal.
func (o *Orchestrator) Dirty() <-chan struct{} {
	return o.dirty
}

func (o *Orchestrator) markDirty() {
	o.indexStale = true
	select {
	case o.dirty <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) Now() time.Time {
	return o.clock.Now()
}

// Tick advances the clock by step and runs one recomputation pass.
func (o *Orchestrator) Tick(ctx context.Context, step time.Duration) time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	previous := o.clock.Now()
	now := o.clock.Advance(step)
	o.refresh(ctx, previous, now)
	return now
}

// Jump moves the clock to an arbitrary later instant.
func (o *Orchestrator) Jump(ctx context.Context, to time.Time) (time.Time, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	previous := o.clock.Now()
	now, err := o.clock.JumpTo(to)
	if err != nil {
		return now, errors.Reject(err, "Waktu tidak dapat dimundurkan.")
	}
	o.refresh(ctx, previous, now)
	return now, nil
}

func (o *Orchestrator) refresh(ctx context.Context, previous, now time.Time) {
	events := o.registry.RecomputeAll(ctx, now)
	advanced := o.accounts.AdvanceCohorts(now)
	if len(events) > 0 || advanced > 0 {
		o.log.Debug("Tick changed state", "transitions", len(events), "cohorts", advanced)
		o.markDirty()
	}

	for _, user := range o.accounts.All() {
		if user.Role == domain.Administrator {
			continue
		}
		prefs := o.prefsFor(user.ID)
		due := projection.DueReminders(o.visible(user).Active, prefs.Reminder, previous, now)
		if len(due) > 0 {
			pending := append(o.reminders[user.ID], due...)
			if len(pending) > maxPendingReminders {
				pending = pending[len(pending)-maxPendingReminders:]
			}
			o.reminders[user.ID] = pending
		}
	}
}

func (o *Orchestrator) prefsFor(userID string) domain.Preferences {
	prefs, ok := o.prefs[userID]
	if !ok {
		prefs = domain.NewPreferences(userID)
		o.prefs[userID] = prefs
	}
	return prefs
}

func (o *Orchestrator) visible(user domain.UserAccount) projection.ClassView {
	return projection.VisibleClasses(
		user,
		o.prefsFor(user.ID),
		o.registry.All(),
		o.accounts.SuspendedLecturers(),
		o.feed.CancellationTimes(),
	)
}

func (o *Orchestrator) user(userID string) (domain.UserAccount, error) {
	user, ok := o.accounts.Get(userID)
	if !ok {
		return domain.UserAccount{}, errors.Reject(errors.ErrUserNotFound, "Pengguna tidak ditemukan.")
	}
	return user, nil
}

func (o *Orchestrator) lecturer(userID, message string) (domain.UserAccount, error) {
	user, err := o.user(userID)
	if err != nil {
		return domain.UserAccount{}, err
	}
	if user.Role != domain.Lecturer {
		return domain.UserAccount{}, errors.Reject(errors.ErrNotLecturer, "%s", message)
	}
	return user, nil
}

func (o *Orchestrator) viewer(userID string) (domain.UserAccount, error) {
	user, err := o.user(userID)
	if err != nil {
		return domain.UserAccount{}, err
	}
	if user.Role == domain.Administrator {
		return domain.UserAccount{}, errors.Reject(errors.ErrAccessDenied, "Akses ditolak.")
	}
	return user, nil
}

func (o *Orchestrator) AddClass(userID string, in domain.ClassInput) (domain.ClassSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.lecturer(userID, "Hanya dosen yang bisa menambah kelas.")
	if err != nil {
		return domain.ClassSession{}, err
	}
	session, err := o.registry.Create(in, user.Name, o.clock.Now())
	if err != nil {
		return domain.ClassSession{}, err
	}
	o.markDirty()
	return session, nil
}

func (o *Orchestrator) AddClasses(userID string, rows []BatchRow) (BatchResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.lecturer(userID, "Hanya dosen yang bisa menambah kelas.")
	if err != nil {
		return BatchResult{}, err
	}
	result := o.registry.CreateBatch(rows, user.Name, o.clock.Now())
	if result.SuccessCount > 0 {
		o.markDirty()
	}
	return result, nil
}

func (o *Orchestrator) EditClass(ctx context.Context, userID, classID string, in domain.ClassInput) (domain.ClassSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.lecturer(userID, "Hanya dosen yang dapat mengubah kelas.")
	if err != nil {
		return domain.ClassSession{}, err
	}
	if err = o.ownClass(user, classID); err != nil {
		return domain.ClassSession{}, err
	}
	session, err := o.registry.Edit(ctx, classID, in, user.Name, o.clock.Now())
	if err != nil {
		return domain.ClassSession{}, err
	}
	o.markDirty()
	return session, nil
}

func (o *Orchestrator) CancelClass(ctx context.Context, userID, classID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.lecturer(userID, "Hanya dosen yang dapat mengubah kelas.")
	if err != nil {
		return err
	}
	if err = o.ownClass(user, classID); err != nil {
		return err
	}
	changed, err := o.registry.Cancel(ctx, classID, o.clock.Now())
	if err != nil {
		return err
	}
	if changed {
		o.markDirty()
	}
	return nil
}

func (o *Orchestrator) ownClass(user domain.UserAccount, classID string) error {
	session, ok := o.registry.Get(classID)
	if !ok {
		return errors.Reject(errors.ErrClassNotFound, "Kelas tidak ditemukan.")
	}
	if !session.HasLecturer(user.Name) {
		return errors.Reject(errors.ErrAccessDenied, "Akses ditolak.")
	}
	return nil
}

// HideClass removes a class from the user's own view. A lecturer hiding a
// class also cancels it.
func (o *Orchestrator) HideClass(ctx context.Context, userID, classID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.viewer(userID)
	if err != nil {
		return err
	}
	o.hide(ctx, user, classID)
	return nil
}

func (o *Orchestrator) hide(ctx context.Context, user domain.UserAccount, ids ...string) {
	prefs := o.prefsFor(user.ID)
	prefs.HiddenFor(user.Role).Add(ids...)
	o.prefs[user.ID] = prefs
	if user.Role == domain.Lecturer {
		o.registry.CancelMany(ctx, o.owned(user, ids), o.clock.Now())
	}
	o.markDirty()
}

// owned keeps the ids of sessions the lecturer teaches.
func (o *Orchestrator) owned(user domain.UserAccount, ids []string) []string {
	return lo.Filter(ids, func(id string, _ int) bool {
		session, ok := o.registry.Get(id)
		return ok && session.HasLecturer(user.Name)
	})
}

func (o *Orchestrator) ArchiveClass(userID, classID string) error {
	return o.withPrefs(userID, func(_ domain.UserAccount, prefs *domain.Preferences) {
		prefs.ArchivedSet().Add(classID)
	})
}

func (o *Orchestrator) RestoreClass(userID, classID string) error {
	return o.withPrefs(userID, func(_ domain.UserAccount, prefs *domain.Preferences) {
		prefs.ArchivedSet().Remove(classID)
	})
}

// DeleteArchived drops a class from the archive and hides it.
func (o *Orchestrator) DeleteArchived(userID, classID string) error {
	return o.withPrefs(userID, func(user domain.UserAccount, prefs *domain.Preferences) {
		prefs.ArchivedSet().Remove(classID)
		prefs.HiddenFor(user.Role).Add(classID)
	})
}

// SetReminder sets the reminder lead in minutes; nil disables reminders.
func (o *Orchestrator) SetReminder(userID string, minutes *int) error {
	if minutes != nil && *minutes < 0 {
		return errors.Reject(errors.ErrInvalidInput, "Pengingat tidak boleh negatif.")
	}
	return o.withPrefs(userID, func(_ domain.UserAccount, prefs *domain.Preferences) {
		prefs.Reminder = minutes
	})
}

func (o *Orchestrator) withPrefs(userID string, apply func(user domain.UserAccount, prefs *domain.Preferences)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.viewer(userID)
	if err != nil {
		return err
	}
	prefs := o.prefsFor(user.ID)
	apply(user, &prefs)
	o.prefs[user.ID] = prefs
	o.markDirty()
	return nil
}

// Preferences returns the user's view state.
func (o *Orchestrator) Preferences(userID string) (domain.Preferences, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.viewer(userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	return o.prefsFor(user.ID), nil
}

// ToggleSelection adds or removes one class from the user's selection.
func (o *Orchestrator) ToggleSelection(userID, classID string) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.viewer(userID)
	if err != nil {
		return nil, err
	}
	selected, ok := o.selection[user.ID]
	if !ok {
		selected = domain.NewIDSet()
		o.selection[user.ID] = selected
	}
	if selected.Has(classID) {
		selected.Remove(classID)
	} else {
		selected.Add(classID)
	}
	return selected.Sorted(), nil
}

type BulkAction string

const (
	BulkCancel         BulkAction = "cancel"
	BulkArchive        BulkAction = "archive"
	BulkHide           BulkAction = "hide"
	BulkRestore        BulkAction = "restore"
	BulkDeleteArchived BulkAction = "delete-archived"
)

// ApplyToSelection runs a set-based action on the selection, then clears it.
func (o *Orchestrator) ApplyToSelection(ctx context.Context, userID string, action BulkAction) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.viewer(userID)
	if err != nil {
		return 0, err
	}
	ids := o.selection[user.ID].Sorted()
	prefs := o.prefsFor(user.ID)

	affected := len(ids)
	switch action {
	case BulkCancel:
		if user.Role != domain.Lecturer {
			return 0, errors.Reject(errors.ErrNotLecturer, "Hanya dosen yang dapat mengubah kelas.")
		}
		affected = o.registry.CancelMany(ctx, o.owned(user, ids), o.clock.Now())
	case BulkArchive:
		prefs.ArchivedSet().Add(ids...)
	case BulkHide:
		o.hide(ctx, user, ids...)
	case BulkRestore:
		prefs.ArchivedSet().Remove(ids...)
	case BulkDeleteArchived:
		prefs.ArchivedSet().Remove(ids...)
		prefs.HiddenFor(user.Role).Add(ids...)
	default:
		return 0, errors.Reject(errors.ErrInvalidInput, "Aksi tidak dikenal.")
	}
	o.prefs[user.ID] = prefs
	delete(o.selection, user.ID)
	o.markDirty()
	return affected, nil
}

// Classes returns the user's active and archived sessions.
func (o *Orchestrator) Classes(userID string) (projection.ClassView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.user(userID)
	if err != nil {
		return projection.ClassView{}, err
	}
	return o.visible(user), nil
}

// Class returns one session if the user can see it.
func (o *Orchestrator) Class(userID, classID string) (domain.ClassSession, error) {
	view, err := o.Classes(userID)
	if err != nil {
		return domain.ClassSession{}, err
	}
	session, ok := lo.Find(append(view.Active, view.Archived...), func(c domain.ClassSession) bool { return c.ID == classID })
	if !ok {
		return domain.ClassSession{}, errors.Reject(errors.ErrClassNotFound, "Kelas tidak ditemukan.")
	}
	return session, nil
}

// Search returns the user's active sessions matching text, in schedule order.
func (o *Orchestrator) Search(ctx context.Context, userID, text string) ([]domain.ClassSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.user(userID)
	if err != nil {
		return nil, err
	}
	active := o.visible(user).Active
	if text == "" {
		return active, nil
	}
	if o.indexStale {
		if err = o.index.Sync(o.registry.All()); err != nil {
			return nil, err
		}
		o.indexStale = false
	}
	ids := domain.NewIDSet(lo.Map(active, func(c domain.ClassSession, _ int) string { return c.ID })...)
	found, err := o.index.Search(ctx, text, ids)
	if err != nil {
		return nil, err
	}
	return lo.Filter(active, func(c domain.ClassSession, _ int) bool { return found.Has(c.ID) }), nil
}

type Feed struct {
	Notifications []domain.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

func (o *Orchestrator) Notifications(userID string) (Feed, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.user(userID)
	if err != nil {
		return Feed{}, err
	}
	notifications := o.visibleNotifications(user)
	return Feed{Notifications: notifications, Unread: projection.UnreadCount(user.ID, notifications)}, nil
}

func (o *Orchestrator) visibleNotifications(user domain.UserAccount) []domain.Notification {
	return projection.VisibleNotifications(user, o.feed.All(), o.visible(user).IDs())
}

func (o *Orchestrator) MarkNotificationRead(userID, notificationID string) error {
	return o.withNotifications(userID, func(user domain.UserAccount, visible []string) int {
		if !lo.Contains(visible, notificationID) {
			return 0
		}
		return o.feed.MarkRead(user.ID, notificationID)
	})
}

func (o *Orchestrator) MarkAllNotificationsRead(userID string) error {
	return o.withNotifications(userID, func(user domain.UserAccount, visible []string) int {
		return o.feed.MarkRead(user.ID, visible...)
	})
}

func (o *Orchestrator) DeleteAllNotifications(userID string) error {
	return o.withNotifications(userID, func(user domain.UserAccount, visible []string) int {
		return o.feed.Delete(user.ID, visible...)
	})
}

func (o *Orchestrator) withNotifications(userID string, apply func(user domain.UserAccount, visible []string) int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.user(userID)
	if err != nil {
		return err
	}
	visible := lo.Map(o.visibleNotifications(user), func(n domain.Notification, _ int) string { return n.ID })
	if apply(user, visible) > 0 {
		o.markDirty()
	}
	return nil
}

// Reminders drains the pending reminder alerts of a user.
func (o *Orchestrator) Reminders(userID string) []projection.Reminder {
	o.mu.Lock()
	defer o.mu.Unlock()
	pending := o.reminders[userID]
	delete(o.reminders, userID)
	return pending
}

// Account returns the user's own record.
func (o *Orchestrator) Account(userID string) (domain.UserAccount, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.user(userID)
}

func (o *Orchestrator) Register(username string) (domain.UserAccount, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.accounts.Register(username, o.clock.Now())
	if err != nil {
		return domain.UserAccount{}, err
	}
	o.markDirty()
	return user, nil
}

func (o *Orchestrator) Login(username, password string) (domain.UserAccount, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.accounts.Login(username, password, o.clock.Now())
	if err != nil {
		return domain.UserAccount{}, err
	}
	o.markDirty()
	return user, nil
}

func (o *Orchestrator) UpdateProfile(userID string, in domain.ProfileInput) (domain.UserAccount, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.accounts.UpdateProfile(userID, in)
	if err != nil {
		return domain.UserAccount{}, err
	}
	o.markDirty()
	return user, nil
}

func (o *Orchestrator) UpdateUser(actorID, userID string, in domain.ProfileInput) (domain.UserAccount, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.accounts.UpdateByAdmin(actorID, userID, in)
	if err != nil {
		return domain.UserAccount{}, err
	}
	o.markDirty()
	return user, nil
}

func (o *Orchestrator) ToggleSuspend(actorID, userID string) (domain.UserAccount, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.accounts.ToggleSuspend(actorID, userID)
	if err != nil {
		return domain.UserAccount{}, err
	}
	o.markDirty()
	return user, nil
}

// DeleteUser removes an account with everything that belongs to it.
func (o *Orchestrator) DeleteUser(actorID, userID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.accounts.Delete(actorID, userID); err != nil {
		return err
	}
	delete(o.prefs, userID)
	delete(o.selection, userID)
	delete(o.reminders, userID)
	o.markDirty()
	return nil
}

func (o *Orchestrator) SetProfilePicture(userID string, data []byte) (domain.UserAccount, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	user, err := o.accounts.SetProfilePicture(userID, data)
	if err != nil {
		return domain.UserAccount{}, err
	}
	o.markDirty()
	return user, nil
}

func (o *Orchestrator) ProfilePicture(userID string) ([]byte, string, error) {
	return o.accounts.ProfilePicture(userID)
}

// Usage is what administrators see about accounts and recent logins.
type Usage struct {
	Users        []domain.UserAccount `json:"users"`
	LoginHistory []string             `json:"loginHistory"`
}

func (o *Orchestrator) Usage(actorID string) (Usage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	actor, err := o.user(actorID)
	if err != nil {
		return Usage{}, err
	}
	if actor.Role != domain.Administrator {
		return Usage{}, errors.Reject(errors.ErrAccessDenied, "Akses ditolak.")
	}
	return Usage{Users: o.accounts.All(), LoginHistory: o.accounts.LoginHistory()}, nil
}
