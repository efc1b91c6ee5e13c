package projection

import (
	"context"
	"log/slog"
	"pajal/domain"
	"pajal/domain/event"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotificationFeed_Consume_Started(t *testing.T) {
	req := require.New(t)
	feed := NewNotificationFeed(slog.Default())
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	// When a class starts
	err := feed.Consume(ctx, event.ClassStarted{Lifecycle: event.Lifecycle{Class: "S", ClassName: "Basis Data", At: at}})
	req.NoError(err)

	// Then one notification is derived with a deterministic id
	all := feed.All()
	req.Len(all, 1)
	req.Equal("notif-S-aktif-"+itoa(at.UnixMilli()), all[0].ID)
	req.Equal("Kelas Basis Data telah dimulai.", all[0].Message)
	req.Equal(domain.KindStarted, all[0].Kind)
}

func TestNotificationFeed_Consume_Deduplicates(t *testing.T) {
	req := require.New(t)
	feed := NewNotificationFeed(slog.Default())
	ctx := context.Background()
	evt := event.ClassEnded{Lifecycle: event.Lifecycle{Class: "S", ClassName: "Basis Data", At: time.Now()}}

	// Given the same transition observed twice
	req.NoError(feed.Consume(ctx, evt))
	req.NoError(feed.Consume(ctx, evt))

	// Then it is recorded once
	req.Len(feed.All(), 1)
}

func TestNotificationFeed_Consume_Messages(t *testing.T) {
	req := require.New(t)
	feed := NewNotificationFeed(slog.Default())
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	lifecycle := func(offset time.Duration) event.Lifecycle {
		return event.Lifecycle{Class: "S", ClassName: "Jaringan", At: base.Add(offset)}
	}

	req.NoError(feed.Consume(ctx, event.ClassCancelled{Lifecycle: lifecycle(time.Minute)}))
	req.NoError(feed.Consume(ctx, event.ClassEdited{Lifecycle: lifecycle(2 * time.Minute), Changes: []string{domain.ChangeName, domain.ChangeLocation}}))
	req.NoError(feed.Consume(ctx, event.ClassNoteChanged{Lifecycle: lifecycle(3 * time.Minute)}))

	// Then the feed is ordered newest first
	all := feed.All()
	req.Len(all, 3)
	req.Equal("Kelas Jaringan mengalami perubahan pada informasi catatan.", all[0].Message)
	req.Equal(domain.KindNote, all[0].Kind)
	req.Equal("Kelas Jaringan mengalami perubahan pada informasi nama kelas dan ruang kelas.", all[1].Message)
	req.Equal("Kelas Jaringan telah dibatalkan.", all[2].Message)
}

func TestNotificationFeed_MarkRead_And_Delete_Are_Per_User(t *testing.T) {
	req := require.New(t)
	feed := NewNotificationFeed(slog.Default())
	ctx := context.Background()
	req.NoError(feed.Consume(ctx, event.ClassStarted{Lifecycle: event.Lifecycle{Class: "S", ClassName: "X", At: time.Now()}}))
	id := feed.All()[0].ID

	// When alice reads then deletes it twice
	req.Equal(1, feed.MarkRead("alice", id))
	req.Equal(0, feed.MarkRead("alice", id))
	req.Equal(1, feed.Delete("alice", id))
	req.Equal(0, feed.Delete("alice", id))

	// Then bob is not affected
	n := feed.All()[0]
	req.True(n.IsReadBy("alice"))
	req.True(n.IsDeletedBy("alice"))
	req.False(n.IsReadBy("bob"))
	req.False(n.IsDeletedBy("bob"))
}

func TestNotificationFeed_CancellationTimes_Keeps_Earliest(t *testing.T) {
	req := require.New(t)
	feed := NewNotificationFeed(slog.Default())
	early := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	feed.Replace([]domain.Notification{
		{ID: "b", Kind: domain.KindCancelled, ClassID: "S", Date: early.Add(time.Hour)},
		{ID: "a", Kind: domain.KindCancelled, ClassID: "S", Date: early},
		{ID: "a", Kind: domain.KindCancelled, ClassID: "S", Date: early},
		{ID: "c", Kind: domain.KindStarted, ClassID: "T", Date: early},
	})

	req.Len(feed.All(), 3)
	times := feed.CancellationTimes()
	req.Len(times, 1)
	req.Equal(early, times["S"])
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
