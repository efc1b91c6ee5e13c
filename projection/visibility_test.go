package projection

import (
	"pajal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func cohort(tag string) *string {
	return &tag
}

func student(registered time.Time) domain.UserAccount {
	return domain.UserAccount{
		ID:               "stu",
		Name:             "Budi",
		Role:             domain.Student,
		ClassType:        cohort("SK1A"),
		State:            domain.Active,
		RegistrationDate: registered,
	}
}

func session(id string, start time.Time, status domain.ClassStatus, lecturers ...string) domain.ClassSession {
	return domain.ClassSession{
		ID:         id,
		Name:       id,
		ClassTypes: []string{"SK1A"},
		Start:      start,
		End:        start.Add(time.Hour),
		Location:   "101",
		Lecturers:  lecturers,
		Status:     status,
	}
}

func TestVisibleClasses_Student_Registration_Cutoff(t *testing.T) {
	req := require.New(t)
	registered := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	user := student(registered)
	prefs := domain.NewPreferences(user.ID)

	// Given two cancelled classes, one cancelled before the student registered
	classes := []domain.ClassSession{
		session("old", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), domain.Batal, "Ada"),
		session("new", time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC), domain.Batal, "Ada"),
	}
	cancelledAt := map[string]time.Time{
		"old": time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
		"new": time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC),
	}

	// When
	view := VisibleClasses(user, prefs, classes, domain.NewIDSet(), cancelledAt)

	// Then only the later cancellation is visible
	req.Len(view.Active, 1)
	req.Equal("new", view.Active[0].ID)
}

func TestVisibleClasses_Student_Filters(t *testing.T) {
	req := require.New(t)
	user := student(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	other := session("other", start, domain.Belum, "Ada")
	other.ClassTypes = []string{"SK3B"}
	classes := []domain.ClassSession{
		session("open", start, domain.Belum, "Ada"),
		other,
		session("suspended", start, domain.Belum, "Grace  Hopper"),
		session("hidden", start, domain.Belum, "Ada"),
		session("archived", start, domain.Belum, "Ada"),
	}
	prefs := domain.NewPreferences(user.ID)
	prefs.HiddenFor(domain.Student).Add("hidden")
	prefs.HiddenFor(domain.Lecturer).Add("open")
	prefs.ArchivedSet().Add("archived")

	// When
	view := VisibleClasses(user, prefs, classes, domain.NewIDSet("grace hopper"), nil)

	// Then
	req.Len(view.Active, 1)
	req.Equal("open", view.Active[0].ID)
	req.Len(view.Archived, 1)
	req.Equal("archived", view.Archived[0].ID)
	req.True(view.IDs().Has("archived"))
}

func TestVisibleClasses_Lecturer_And_Admin(t *testing.T) {
	req := require.New(t)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	classes := []domain.ClassSession{
		session("mine", start, domain.Belum, "Ada  Lovelace"),
		session("theirs", start, domain.Belum, "Grace"),
	}
	lecturer := domain.UserAccount{ID: "lec", Name: "ada lovelace", Role: domain.Lecturer}
	admin := domain.UserAccount{ID: "adm", Name: "Admin", Role: domain.Administrator}

	view := VisibleClasses(lecturer, domain.NewPreferences(lecturer.ID), classes, domain.NewIDSet(), nil)
	req.Len(view.Active, 1)
	req.Equal("mine", view.Active[0].ID)

	view = VisibleClasses(admin, domain.NewPreferences(admin.ID), classes, domain.NewIDSet(), nil)
	req.Empty(view.Active)
	req.Empty(view.Archived)
}

func TestVisibleNotifications(t *testing.T) {
	req := require.New(t)
	registered := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	after := registered.Add(time.Hour)
	notifications := []domain.Notification{
		{ID: "1", Kind: domain.KindStarted, ClassID: "S", Date: after},
		{ID: "2", Kind: domain.KindCancelled, ClassID: "S", Date: after},
		{ID: "3", Kind: domain.KindEdited, ClassID: "S", Date: after},
		{ID: "4", Kind: domain.KindStarted, ClassID: "S", Date: registered.Add(-time.Hour)},
		{ID: "5", Kind: domain.KindStarted, ClassID: "T", Date: after},
		{ID: "6", Kind: domain.KindEnded, ClassID: "S", Date: after, DeletedBy: []string{"stu", "lec"}},
	}
	visible := domain.NewIDSet("S")

	// Students see every kind
	stu := student(registered)
	req.Equal([]string{"1", "2", "3"}, ids(VisibleNotifications(stu, notifications, visible)))

	// Lecturers do not hear about their own cancellations and edits
	lec := domain.UserAccount{ID: "lec", Role: domain.Lecturer, RegistrationDate: registered}
	req.Equal([]string{"1"}, ids(VisibleNotifications(lec, notifications, visible)))

	req.Equal(3, UnreadCount("stu", VisibleNotifications(stu, notifications, visible)))
}

func TestDueReminders(t *testing.T) {
	req := require.New(t)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	active := []domain.ClassSession{
		session("soon", start, domain.Belum, "Ada"),
		session("running", start, domain.Aktif, "Ada"),
	}
	lead := 30

	// Given a tick crossing start minus 30 minutes
	previous := start.Add(-30*time.Minute - time.Second)
	now := start.Add(-30 * time.Minute)

	reminders := DueReminders(active, &lead, previous, now)
	req.Len(reminders, 1)
	req.Equal("🚨Kelas soon akan dimulai🚨", reminders[0].Message)

	// The next tick does not repeat it
	req.Empty(DueReminders(active, &lead, now, now.Add(time.Second)))

	// Reminders can be disabled
	req.Empty(DueReminders(active, nil, previous, now))
}

func ids(notifications []domain.Notification) []string {
	out := make([]string, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, n.ID)
	}
	return out
}
