package projection

import (
	"pajal/domain"
	"time"

	"github.com/samber/lo"
)

// ClassView is a user's filtered class list split by archive membership.
type ClassView struct {
	Active   []domain.ClassSession `json:"active"`
	Archived []domain.ClassSession `json:"archived"`
}

// IDs returns every session id in the view, active and archived.
func (v ClassView) IDs() domain.IDSet {
	set := domain.NewIDSet()
	for _, c := range v.Active {
		set.Add(c.ID)
	}
	for _, c := range v.Archived {
		set.Add(c.ID)
	}
	return set
}

// Reminder is a transient alert, never stored.
type Reminder struct {
	ClassID   string    `json:"classId"`
	ClassName string    `json:"className"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// VisibleClasses filters the registry for one user. Administrators see no
// sessions. suspended holds the normalised names of suspended lecturers and
// cancelledAt the earliest cancellation time per class.
func VisibleClasses(
	user domain.UserAccount,
	prefs domain.Preferences,
	classes []domain.ClassSession,
	suspended domain.IDSet,
	cancelledAt map[string]time.Time,
) ClassView {
	view := ClassView{Active: []domain.ClassSession{}, Archived: []domain.ClassSession{}}
	if user.Role == domain.Administrator {
		return view
	}

	hidden := prefs.HiddenFor(user.Role)
	archived := prefs.ArchivedSet()

	for _, c := range classes {
		if hidden.Has(c.ID) {
			continue
		}
		switch user.Role {
		case domain.Student:
			if !visibleToStudent(user, c, suspended, cancelledAt) {
				continue
			}
		case domain.Lecturer:
			if !c.HasLecturer(user.Name) {
				continue
			}
		}
		if archived.Has(c.ID) {
			view.Archived = append(view.Archived, c)
		} else {
			view.Active = append(view.Active, c)
		}
	}
	return view
}

func visibleToStudent(user domain.UserAccount, c domain.ClassSession, suspended domain.IDSet, cancelledAt map[string]time.Time) bool {
	if c.Status == domain.Batal {
		if at, ok := cancelledAt[c.ID]; ok && at.Before(user.RegistrationDate) {
			return false
		}
	}
	if !c.OpenTo(user.Cohort()) {
		return false
	}
	return !lo.SomeBy(c.Lecturers, func(lecturer string) bool {
		return suspended.Has(domain.NormalizeName(lecturer))
	})
}

// VisibleNotifications keeps notifications emitted after registration, about
// a visible session and not deleted by the user. Lecturers never see the
// notifications about their own cancellations and edits.
func VisibleNotifications(user domain.UserAccount, notifications []domain.Notification, visible domain.IDSet) []domain.Notification {
	if user.Role == domain.Administrator {
		return []domain.Notification{}
	}
	return lo.Filter(notifications, func(n domain.Notification, _ int) bool {
		if n.Date.Before(user.RegistrationDate) || !visible.Has(n.ClassID) || n.IsDeletedBy(user.ID) {
			return false
		}
		return user.Role != domain.Lecturer || !n.Kind.AboutOwnAction()
	})
}

// UnreadCount counts notifications userID has not read yet.
func UnreadCount(userID string, notifications []domain.Notification) int {
	return lo.CountBy(notifications, func(n domain.Notification) bool { return !n.IsReadBy(userID) })
}

// DueReminders returns one alert per upcoming session whose reminder instant
// (start minus the lead) falls in (previous, now]. A nil lead disables them.
func DueReminders(active []domain.ClassSession, lead *int, previous, now time.Time) []Reminder {
	if lead == nil || *lead < 0 {
		return nil
	}
	offset := time.Duration(*lead) * time.Minute
	var reminders []Reminder
	for _, c := range active {
		if c.Status != domain.Belum && c.Status != domain.Segera {
			continue
		}
		at := c.Start.Add(-offset)
		if at.After(previous) && !at.After(now) {
			reminders = append(reminders, Reminder{
				ClassID:   c.ID,
				ClassName: c.Name,
				Message:   domain.ReminderMessage(c.Name),
				At:        now,
			})
		}
	}
	return reminders
}
