// Package event holds the lifecycle events emitted by the class registry.
package event

import (
	"time"
)

type DomainEvent interface {
	ClassID() string
	OccurredAt() time.Time
}

// Lifecycle carries what every class event knows about its session.
type Lifecycle struct {
	Class     string
	ClassName string
	At        time.Time
}

func (l Lifecycle) ClassID() string {
	return l.Class
}

func (l Lifecycle) OccurredAt() time.Time {
	return l.At
}

// ClassStarted is emitted when a recomputation pass moves a session into Aktif.
type ClassStarted struct {
	Lifecycle
}

// ClassEnded is emitted when a recomputation pass moves a session into Selesai.
type ClassEnded struct {
	Lifecycle
}

// ClassCancelled is emitted synchronously by cancellation, never by a tick.
type ClassCancelled struct {
	Lifecycle
}

// ClassEdited lists the changed fields as display phrases.
type ClassEdited struct {
	Lifecycle
	Changes []string
}

type ClassNoteChanged struct {
	Lifecycle
}
