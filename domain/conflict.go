package domain

import (
	"pajal/errors"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Slot is the part of a class that takes part in conflict detection.
type Slot struct {
	Name     string
	Start    time.Time
	End      time.Time
	Location string
}

func (c ClassSession) Slot() Slot {
	return Slot{Name: c.Name, Start: c.Start, End: c.End, Location: c.Location}
}

// CheckConflict rejects a candidate that double-books a room or the acting
// lecturer on the same calendar day. Sessions listed in excludeIDs and
// terminal sessions are ignored. The room check runs before the lecturer
// check and the first hit wins.
func CheckConflict(candidate Slot, existing []ClassSession, lecturer string, excludeIDs ...string) error {
	for _, other := range existing {
		if lo.Contains(excludeIDs, other.ID) || other.Status.IsTerminal() {
			continue
		}
		if !SameDay(candidate.Start, other.Start) {
			continue
		}
		if !Overlaps(candidate.Start, candidate.End, other.Start, other.End) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(other.Location), strings.TrimSpace(candidate.Location)) {
			return errors.Reject(errors.ErrRoomConflict,
				"Jadwal bentrok: Ruang %s sudah digunakan oleh kelas \"%s\" pada waktu yang sama.",
				candidate.Location, other.Name)
		}
		if other.HasLecturer(lecturer) {
			return errors.Reject(errors.ErrLecturerConflict,
				"Jadwal bentrok: Anda sudah memiliki jadwal lain (%s di Ruang %s) pada waktu yang sama.",
				other.Name, other.Location)
		}
	}
	return nil
}
