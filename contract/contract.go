//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"pajal/domain/event"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker runs until its context ends. Panics are handled by the supervisor.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives class lifecycle events synchronously, in emission order.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Ticker is the part of the core the clock worker drives.
type Ticker interface {
	Tick(ctx context.Context, step time.Duration) time.Time
}

// Snapshotter persists the current state. Dirty fires after changes;
// signals coalesce while a save is pending.
type Snapshotter interface {
	Persist(ctx context.Context) error
	Dirty() <-chan struct{}
}

// ClassRoster is what account management needs from the class registry.
type ClassRoster interface {
	RenameLecturer(oldName, newName string) int
	PurgeLecturer(name string) []string
}
