package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	day    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ten    = day.Add(10 * time.Hour)
	eleven = day.Add(11 * time.Hour)
)

func TestComputeStatus(t *testing.T) {
	req := require.New(t)

	req.Equal(Belum, ComputeStatus(ten, eleven, false, ten.Add(-time.Hour), 0))
	req.Equal(Aktif, ComputeStatus(ten, eleven, false, ten, 0))
	req.Equal(Aktif, ComputeStatus(ten, eleven, false, eleven.Add(-time.Nanosecond), 0))
	req.Equal(Selesai, ComputeStatus(ten, eleven, false, eleven, 0))
	req.Equal(Batal, ComputeStatus(ten, eleven, true, ten.Add(-time.Hour), 0))
	req.Equal(Batal, ComputeStatus(ten, eleven, true, eleven.Add(time.Hour), 0))

	// Segera only exists with a positive window
	req.Equal(Segera, ComputeStatus(ten, eleven, false, ten.Add(-10*time.Minute), 15*time.Minute))
	req.Equal(Belum, ComputeStatus(ten, eleven, false, ten.Add(-20*time.Minute), 15*time.Minute))
}

func TestComputeStatus_Is_Pure(t *testing.T) {
	req := require.New(t)
	now := ten.Add(30 * time.Minute)

	first := ComputeStatus(ten, eleven, false, now, 0)
	for range 10 {
		req.Equal(first, ComputeStatus(ten, eleven, false, now, 0))
	}
}

func TestRefresh_Terminal_Is_Absorbing(t *testing.T) {
	req := require.New(t)
	finished := ClassSession{Start: ten, End: eleven, Status: Selesai}
	cancelled := ClassSession{Start: ten, End: eleven, Status: Batal}

	// Even a time before the start does not bring them back
	req.Equal(Selesai, finished.Refresh(ten.Add(-time.Hour), 0))
	req.Equal(Batal, cancelled.Refresh(ten.Add(30*time.Minute), 0))

	running := ClassSession{Start: ten, End: eleven, Status: Belum}
	req.Equal(Aktif, running.Refresh(ten, 0))
}

func TestClassSession_HasLecturer(t *testing.T) {
	req := require.New(t)
	session := ClassSession{Lecturers: []string{"Dr. Siti  Rahmawati"}}

	req.True(session.HasLecturer("dr. siti rahmawati"))
	req.True(session.HasLecturer(" Dr. Siti Rahmawati "))
	req.False(session.HasLecturer("Siti"))
}

func TestOverlaps_Touching_Boundaries(t *testing.T) {
	req := require.New(t)

	req.False(Overlaps(ten, eleven, eleven, eleven.Add(time.Hour)))
	req.True(Overlaps(ten, eleven, ten.Add(59*time.Minute), eleven.Add(time.Hour)))
	req.True(Overlaps(ten, eleven, ten.Add(10*time.Minute), ten.Add(20*time.Minute)))
}

func TestSortByStart_Is_Stable(t *testing.T) {
	req := require.New(t)
	classes := []ClassSession{
		{ID: "b", Start: eleven},
		{ID: "a1", Start: ten},
		{ID: "a2", Start: ten},
	}

	SortByStart(classes)

	req.Equal("a1", classes[0].ID)
	req.Equal("a2", classes[1].ID)
	req.Equal("b", classes[2].ID)
}
