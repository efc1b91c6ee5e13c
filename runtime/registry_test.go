package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"pajal/domain"
	"pajal/domain/event"
	"pajal/errors"
	"pajal/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// RecordingSink keeps every consumed event in order.
type RecordingSink struct {
	events []event.DomainEvent
}

func (s *RecordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.events = append(s.events, e)
	return nil
}

var (
	day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Early enough that every class below respects the lead time.
	morning = day.Add(6 * time.Hour)
)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func input(name string, start, end time.Time, room string) domain.ClassInput {
	return domain.ClassInput{Name: name, ClassTypes: []string{"SK1A"}, Start: start, End: end, Location: room}
}

func newRegistry() (*Registry, *RecordingSink) {
	registry := NewRegistry(slog.Default(), 30*time.Minute, 0, time.UTC)
	sink := &RecordingSink{}
	registry.RegisterSinks(sink)
	return registry, sink
}

func TestRegistry_Create_Conflict_Scenario(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistry()

	// Given S: 10:00-11:00, room 101, lecturer Ada
	s, err := registry.Create(input("S", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)
	req.Equal([]string{"Ada"}, s.Lecturers)
	req.Equal(domain.Belum, s.Status)

	// When S2 uses the same room at an overlapping time
	_, err = registry.Create(input("S2", at(10, 30), at(11, 30), "101"), "Grace", morning)
	req.ErrorIs(err, errors.ErrRoomConflict)
	req.EqualError(err, `Jadwal bentrok: Ruang 101 sudah digunakan oleh kelas "S" pada waktu yang sama.`)

	// When S3 is in another room but Ada teaches both
	_, err = registry.Create(input("S3", at(10, 30), at(11, 30), "202"), "ada", morning)
	req.ErrorIs(err, errors.ErrLecturerConflict)
	req.EqualError(err, "Jadwal bentrok: Anda sudah memiliki jadwal lain (S di Ruang 101) pada waktu yang sama.")

	// When S4 starts exactly when S ends
	_, err = registry.Create(input("S4", at(11, 0), at(12, 0), "101"), "Ada", morning)
	req.NoError(err)

	// Then the collection is kept sorted by start
	all := registry.All()
	req.Len(all, 2)
	req.Equal("S", all[0].Name)
	req.Equal("S4", all[1].Name)
}

func TestRegistry_Create_Timing(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistry()
	now := at(10, 0)

	_, err := registry.Create(input("Lalu", at(9, 0), at(9, 30), "101"), "Ada", now)
	req.ErrorIs(err, errors.ErrPastSchedule)
	req.EqualError(err, `Tidak dapat menjadwalkan kelas "Lalu" pada waktu yang sudah berlalu.`)

	_, err = registry.Create(input("Mepet", at(10, 29), at(11, 0), "101"), "Ada", now)
	req.ErrorIs(err, errors.ErrLeadTime)
	req.EqualError(err, `Kelas "Mepet" harus dijadwalkan minimal 30 menit dari sekarang.`)

	_, err = registry.Create(input("Pas", at(10, 30), at(11, 0), "101"), "Ada", now)
	req.NoError(err)
}

func TestRegistry_Create_Invalid_Input(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistry()

	in := input("Terbalik", at(11, 0), at(10, 0), "101")
	_, err := registry.Create(in, "Ada", morning)
	req.ErrorIs(err, errors.ErrInvalidInput)

	in = input("Tanpa kategori", at(10, 0), at(11, 0), "101")
	in.ClassTypes = nil
	_, err = registry.Create(in, "Ada", morning)
	req.ErrorIs(err, errors.ErrInvalidInput)
	req.Empty(registry.All())
}

func TestRegistry_CreateBatch_Intra_Batch_Conflict(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistry()

	// Given candidate 2 collides with candidate 1 only
	rows := []BatchRow{
		{Row: 2, Input: input("A", at(10, 0), at(11, 0), "101")},
		{Row: 3, Input: input("B", at(10, 30), at(11, 30), "101")},
		{Row: 4, Input: input("C", at(13, 0), at(14, 0), "101")},
	}

	// When
	result := registry.CreateBatch(rows, "Ada", morning)

	// Then
	req.Equal(2, result.SuccessCount)
	req.Equal([]string{
		`Baris 3 (B): Jadwal bentrok: Ruang 101 sudah digunakan oleh kelas "A" pada waktu yang sama.`,
	}, result.Errors)
	req.Len(registry.All(), 2)
}

func TestRegistry_CreateBatch_Row_Errors(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistry()
	now := at(10, 0)

	result := registry.CreateBatch([]BatchRow{
		{Row: 1, Input: input("Lalu", at(9, 0), at(9, 30), "101")},
		{Row: 2, Input: input("Mepet", at(10, 10), at(11, 0), "101")},
		{Row: 3, Input: input("Oke", at(12, 0), at(13, 0), "101")},
	}, "Ada", now)

	req.Equal(1, result.SuccessCount)
	req.Equal([]string{
		`Baris 1: Kelas "Lalu" dijadwalkan pada waktu yang sudah berlalu.`,
		`Baris 2: Kelas "Mepet" harus dijadwalkan minimal 30 menit dari sekarang.`,
	}, result.Errors)
}

func TestRegistry_RecomputeAll_Emits_One_Started(t *testing.T) {
	req := require.New(t)
	registry, sink := newRegistry()
	ctx := context.Background()
	s, err := registry.Create(input("S", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)

	// When the clock passes the start
	tick := at(10, 0).Add(time.Second)
	registry.RecomputeAll(ctx, tick)
	registry.RecomputeAll(ctx, tick.Add(time.Second))

	// Then exactly one started event is emitted
	req.Len(sink.events, 1)
	started, ok := sink.events[0].(event.ClassStarted)
	req.True(ok)
	req.Equal(s.ID, started.ClassID())
	req.Equal(tick, started.OccurredAt())
	req.Equal(fmt.Sprintf("notif-%s-aktif-%d", s.ID, tick.UnixMilli()), domain.NotificationID(s.ID, domain.KindStarted, tick))

	// And ending is emitted once too
	registry.RecomputeAll(ctx, at(11, 0))
	req.Len(sink.events, 2)
	_, ok = sink.events[1].(event.ClassEnded)
	req.True(ok)
}

func TestRegistry_Terminal_Status_Is_Absorbing(t *testing.T) {
	req := require.New(t)
	registry, sink := newRegistry()
	ctx := context.Background()
	s, err := registry.Create(input("S", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)

	// When it is cancelled
	changed, err := registry.Cancel(ctx, s.ID, morning)
	req.NoError(err)
	req.True(changed)
	req.Len(sink.events, 1)
	_, ok := sink.events[0].(event.ClassCancelled)
	req.True(ok)

	// Then no clock advance brings it back and cancelling again is a no-op
	for _, now := range []time.Time{at(10, 30), at(12, 0), at(23, 0)} {
		registry.RecomputeAll(ctx, now)
	}
	changed, err = registry.Cancel(ctx, s.ID, at(12, 0))
	req.NoError(err)
	req.False(changed)
	got, _ := registry.Get(s.ID)
	req.Equal(domain.Batal, got.Status)
	req.Len(sink.events, 1)

	// A cancelled class no longer blocks its room
	_, err = registry.Create(input("Ganti", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)
}

func TestRegistry_Edit_Notifications(t *testing.T) {
	req := require.New(t)
	registry, sink := newRegistry()
	ctx := context.Background()
	s, err := registry.Create(input("S", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)

	// Note only
	in := input("S", at(10, 0), at(11, 0), "101")
	in.Note = "Bawa kalkulator"
	_, err = registry.Edit(ctx, s.ID, in, "Ada", morning)
	req.NoError(err)
	req.Len(sink.events, 1)
	_, ok := sink.events[0].(event.ClassNoteChanged)
	req.True(ok)

	// Name and room, the note unchanged
	in.Name = "S baru"
	in.Location = "202"
	_, err = registry.Edit(ctx, s.ID, in, "Ada", morning.Add(time.Minute))
	req.NoError(err)
	req.Len(sink.events, 2)
	edited, ok := sink.events[1].(event.ClassEdited)
	req.True(ok)
	req.Equal([]string{domain.ChangeName, domain.ChangeLocation}, edited.Changes)
	req.Equal("S baru", edited.ClassName)

	// Nothing changed
	_, err = registry.Edit(ctx, s.ID, in, "Ada", morning.Add(2*time.Minute))
	req.NoError(err)
	req.Len(sink.events, 2)
}

func TestRegistry_Edit_Excludes_Itself(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistry()
	ctx := context.Background()
	s, err := registry.Create(input("S", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)
	_, err = registry.Create(input("T", at(12, 0), at(13, 0), "202"), "Grace", morning)
	req.NoError(err)

	// Moving S by 15 minutes does not collide with itself
	_, err = registry.Edit(ctx, s.ID, input("S", at(10, 15), at(11, 15), "101"), "Ada", morning)
	req.NoError(err)

	// Moving it into T's room and time does
	_, err = registry.Edit(ctx, s.ID, input("S", at(12, 30), at(13, 30), "202"), "Ada", morning)
	req.EqualError(err, `Jadwal bentrok: Ruang 202 sudah digunakan oleh kelas "T" pada waktu yang sama.`)

	_, err = registry.Edit(ctx, s.ID, input("S", at(6, 10), at(7, 0), "101"), "Ada", morning)
	req.EqualError(err, "Kelas harus dijadwalkan minimal 30 menit dari sekarang.")

	_, err = registry.Edit(ctx, "missing", input("S", at(12, 30), at(13, 30), "303"), "Ada", morning)
	req.ErrorIs(err, errors.ErrClassNotFound)
}

func TestRegistry_Lecturer_Rename_And_Purge(t *testing.T) {
	req := require.New(t)
	registry, _ := newRegistry()
	_, err := registry.Create(input("S", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)
	_, err = registry.Create(input("T", at(12, 0), at(13, 0), "101"), "Grace", morning)
	req.NoError(err)

	before := registry.All()
	req.Equal(1, registry.RenameLecturer("ada", "Ada King"))
	// Earlier snapshots keep the old name
	req.Equal([]string{"Ada"}, before[0].Lecturers)
	req.Equal([]string{"Ada King"}, registry.All()[0].Lecturers)

	removed := registry.PurgeLecturer("ADA  king")
	req.Len(removed, 1)
	all := registry.All()
	req.Len(all, 1)
	req.Equal("T", all[0].Name)
}

func TestRegistry_Sink_Error_Does_Not_Stop_Dispatch(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	failing := mocks.NewMockEventSink(ctrl)
	registry, sink := newRegistry()
	registry.RegisterSinks(failing)
	s, err := registry.Create(input("S", at(10, 0), at(11, 0), "101"), "Ada", morning)
	req.NoError(err)

	failing.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded).Times(1)

	_, err = registry.Cancel(context.Background(), s.ID, morning)
	req.NoError(err)
	req.Len(sink.events, 1)
}

func TestRegistry_Conflict_Dates_Follow_Schedule_Zone(t *testing.T) {
	wib := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, 1, 1, 6, 0, 0, 0, wib)
	existingStart := time.Date(2024, 1, 2, 0, 0, 0, 0, wib)
	candidateStart := time.Date(2024, 1, 1, 23, 30, 0, 0, wib)

	for _, sent := range []*time.Location{wib, time.UTC} {
		t.Run(sent.String(), func(t *testing.T) {
			req := require.New(t)
			registry := NewRegistry(slog.Default(), 30*time.Minute, 0, wib)

			// Given a session at local midnight in room 101
			_, err := registry.Create(input("S", existingStart, existingStart.Add(time.Hour), "101"), "Ada", now)
			req.NoError(err)

			// When the same room is booked on the local evening before, sent in another offset
			created, err := registry.Create(input("S2", candidateStart.In(sent), candidateStart.Add(time.Hour).In(sent), "101"), "Grace", now)

			// Then the local calendar dates differ and nothing conflicts
			req.NoError(err)
			req.Equal(wib, created.Start.Location())
		})
	}
}
