//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"match-mate/domain"
	"reflect"
)

// EventSink is one live realtime connection as the core sees it. Consume must
// not block: a sink whose buffer is full reports an error and the frame is
// dropped for that connection only.
type EventSink interface {
	ID() string
	Consume(ctx context.Context, f domain.Frame) error
}

// IPresence maps a user identity to the set of its active connections.
// In-memory, process-lifetime state; reset on restart.
type IPresence interface {
	Join(userID string, sink EventSink)
	Leave(sink EventSink)
	ConnectionsFor(userID string) []EventSink
}

// IDeliverer pushes an event to every active connection of the target user,
// best effort, fire and forget. An offline target is a silent no-op.
type IDeliverer interface {
	Deliver(ctx context.Context, targetUserID string, f domain.Frame)
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming in
// the Worker interface.
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
