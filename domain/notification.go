package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

type NotificationKind string

const (
	KindStarted   NotificationKind = "aktif"
	KindEnded     NotificationKind = "selesai"
	KindCancelled NotificationKind = "batal"
	KindEdited    NotificationKind = "edit"
	KindNote      NotificationKind = "catatan"
)

// AboutOwnAction reports kinds a lecturer caused themselves.
func (k NotificationKind) AboutOwnAction() bool {
	return k == KindCancelled || k == KindEdited || k == KindNote
}

// Notification is an append-only event record. Only ReadBy and DeletedBy grow.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	ClassID   string           `json:"classId"`
	ClassName string           `json:"className"`
	Message   string           `json:"message"`
	Date      time.Time        `json:"date"`
	ReadBy    []string         `json:"readBy"`
	DeletedBy []string         `json:"deletedBy"`
}

// NotificationID is deterministic so the same transition is never recorded twice.
func NotificationID(classID string, kind NotificationKind, at time.Time) string {
	return fmt.Sprintf("notif-%s-%s-%d", classID, kind, at.UnixMilli())
}

func (n Notification) IsReadBy(userID string) bool {
	return lo.Contains(n.ReadBy, userID)
}

func (n Notification) IsDeletedBy(userID string) bool {
	return lo.Contains(n.DeletedBy, userID)
}

// MarkRead adds userID to ReadBy and reports whether anything changed.
func (n *Notification) MarkRead(userID string) bool {
	if n.IsReadBy(userID) {
		return false
	}
	n.ReadBy = append(n.ReadBy, userID)
	return true
}

// MarkDeleted adds userID to DeletedBy and reports whether anything changed.
func (n *Notification) MarkDeleted(userID string) bool {
	if n.IsDeletedBy(userID) {
		return false
	}
	n.DeletedBy = append(n.DeletedBy, userID)
	return true
}

// SortNewestFirst orders notifications by date descending, stable on ties.
func SortNewestFirst(notifications []Notification) {
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Date.After(notifications[j].Date)
	})
}

func StartedMessage(className string) string {
	return fmt.Sprintf("Kelas %s telah dimulai.", className)
}

func EndedMessage(className string) string {
	return fmt.Sprintf("Kelas %s telah berakhir.", className)
}

func CancelledMessage(className string) string {
	return fmt.Sprintf("Kelas %s telah dibatalkan.", className)
}

func ChangedMessage(className, changes string) string {
	return fmt.Sprintf("Kelas %s mengalami perubahan pada informasi %s.", className, changes)
}

func ReminderMessage(className string) string {
	return fmt.Sprintf("🚨Kelas %s akan dimulai🚨", className)
}
