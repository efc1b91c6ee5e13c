package domain

import (
	"pajal/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func existing() []ClassSession {
	return []ClassSession{{ID: "s", Name: "S", Start: ten, End: eleven, Location: "101", Lecturers: []string{"Ada"}, Status: Belum}}
}

func TestCheckConflict_Room_Before_Lecturer(t *testing.T) {
	req := require.New(t)
	candidate := Slot{Name: "S2", Start: ten.Add(30 * time.Minute), End: eleven.Add(30 * time.Minute), Location: "101"}

	// Both rules match, the room wins
	err := CheckConflict(candidate, existing(), "Ada")

	req.ErrorIs(err, errors.ErrRoomConflict)
	req.EqualError(err, `Jadwal bentrok: Ruang 101 sudah digunakan oleh kelas "S" pada waktu yang sama.`)
}

func TestCheckConflict_Room_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	classes := existing()
	classes[0].Location = "Lab A"

	err := CheckConflict(Slot{Name: "X", Start: ten, End: eleven, Location: " lab a"}, classes, "Grace")

	req.ErrorIs(err, errors.ErrRoomConflict)
}

func TestCheckConflict_Lecturer(t *testing.T) {
	req := require.New(t)

	err := CheckConflict(Slot{Name: "S3", Start: ten, End: eleven, Location: "202"}, existing(), "ada")

	req.ErrorIs(err, errors.ErrLecturerConflict)
	req.EqualError(err, "Jadwal bentrok: Anda sudah memiliki jadwal lain (S di Ruang 101) pada waktu yang sama.")
}

func TestCheckConflict_No_Conflict(t *testing.T) {
	req := require.New(t)

	// Back to back
	req.NoError(CheckConflict(Slot{Name: "S4", Start: eleven, End: eleven.Add(time.Hour), Location: "101"}, existing(), "Ada"))
	// Another day
	req.NoError(CheckConflict(Slot{Name: "S5", Start: ten.AddDate(0, 0, 1), End: eleven.AddDate(0, 0, 1), Location: "101"}, existing(), "Ada"))
	// Excluded
	req.NoError(CheckConflict(Slot{Name: "S", Start: ten, End: eleven, Location: "101"}, existing(), "Ada", "s"))
	// Terminal sessions do not block
	classes := existing()
	classes[0].Status = Batal
	req.NoError(CheckConflict(Slot{Name: "S6", Start: ten, End: eleven, Location: "101"}, classes, "Ada"))
}

func TestCheckConflict_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	a := ClassSession{ID: "a", Name: "A", Start: ten, End: eleven, Location: "101", Lecturers: []string{"Ada"}}
	b := ClassSession{ID: "b", Name: "B", Start: ten.Add(15 * time.Minute), End: eleven.Add(15 * time.Minute), Location: "101", Lecturers: []string{"Grace"}}

	errAB := CheckConflict(a.Slot(), []ClassSession{b}, "Ada")
	errBA := CheckConflict(b.Slot(), []ClassSession{a}, "Grace")

	req.ErrorIs(errAB, errors.ErrRoomConflict)
	req.ErrorIs(errBA, errors.ErrRoomConflict)
}
