// Package backend defines the opaque capability stores the agents operate on.
// Every operation returns a human-readable success string; failures come back
// as ordinary errors and are converted to textual tool errors at the tool
// boundary, never surfaced to the caller of an agent.
package backend

import "context"

// Calendar is the appointment store behind the scheduling agent.
type Calendar interface {
	CreateEvent(ctx context.Context, details EventDetails) (string, error)
	ModifyEvent(ctx context.Context, params ModifyEventParams) (string, error)
	DeleteEvent(ctx context.Context, params DeleteEventParams) (string, error)
	ListEvents(ctx context.Context, params EventListParams) (string, error)
}

// Todos is the task store behind the task-list agent.
type Todos interface {
	CreateTodo(ctx context.Context, details TodoDetails) (string, error)
	ModifyTodo(ctx context.Context, params ModifyTodoParams) (string, error)
	DeleteTodo(ctx context.Context, params DeleteTodoParams) (string, error)
	ListTodos(ctx context.Context, params TodoListParams) (string, error)
	CreateTasklist(ctx context.Context, title string) (string, error)
	DeleteTasklist(ctx context.Context, tasklistID string) (string, error)
	ListTasklists(ctx context.Context) (string, error)
}
