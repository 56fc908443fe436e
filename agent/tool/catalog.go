// Package tool builds the per-agent tool catalogs: the schemas advertised to
// the routing backend and the executors that map tool calls onto capability
// backends. Executors convert backend failures into textual ToolResult errors
// so a failed call still completes the turn.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/backend"
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

// Tool names. Dotted names group tools by the backend they touch.
const (
	ToolTimeNow = "time.now"

	ToolCalendarCreate = "calendar.create_event"
	ToolCalendarModify = "calendar.modify_event"
	ToolCalendarDelete = "calendar.delete_event"
	ToolCalendarList   = "calendar.list_events"

	ToolTodoCreate     = "todo.create"
	ToolTodoModify     = "todo.modify"
	ToolTodoDelete     = "todo.delete"
	ToolTodoList       = "todo.list"
	ToolTasklistCreate = "tasklist.create"
	ToolTasklistDelete = "tasklist.delete"
	ToolTasklistList   = "tasklist.list"

	ToolWebSearch = "web.search"
)

// Clock supplies the current wall-clock time for the time.now tool.
type Clock func() time.Time

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// BuildForScheduler returns the scheduling agent's tool schemas and executor.
func BuildForScheduler(cal backend.Calendar, now Clock) ([]contractx.ToolSchema, Executor) {
	return schedulerSchemas(), newSchedulerExecutor(cal, now)
}

// BuildForTodo returns the task-list agent's tool schemas and executor.
func BuildForTodo(todos backend.Todos, now Clock) ([]contractx.ToolSchema, Executor) {
	return todoSchemas(), newTodoExecutor(todos, now)
}

// BuildForCoordinator returns the coordinator's own tool set. With a nil
// search provider the web-search capability is omitted entirely.
func BuildForCoordinator(search contractx.SearchProvider) ([]contractx.ToolSchema, Executor) {
	if search == nil {
		return nil, DefaultExecutor(contractx.AgentTypeCoordinator)
	}
	return searchSchemas(), newSearchExecutor(search)
}

// DefaultExecutor rejects every tool with an unavailable message.
func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(_ context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

func newSchedulerExecutor(cal backend.Calendar, now Clock) Executor {
	fallback := DefaultExecutor(contractx.AgentTypeScheduler)
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolTimeNow:
			return executeTimeNow(tool, args, now), nil
		case ToolCalendarCreate:
			var details backend.EventDetails
			if err := decodeArgs(args, &details); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return cal.CreateEvent(ctx, details) }), nil
		case ToolCalendarModify:
			var params backend.ModifyEventParams
			if err := decodeArgs(args, &params); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return cal.ModifyEvent(ctx, params) }), nil
		case ToolCalendarDelete:
			var params backend.DeleteEventParams
			if err := decodeArgs(args, &params); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return cal.DeleteEvent(ctx, params) }), nil
		case ToolCalendarList:
			var params backend.EventListParams
			if err := decodeArgs(args, &params); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return cal.ListEvents(ctx, params) }), nil
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func newTodoExecutor(todos backend.Todos, now Clock) Executor {
	fallback := DefaultExecutor(contractx.AgentTypeTodo)
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolTimeNow:
			return executeTimeNow(tool, args, now), nil
		case ToolTodoCreate:
			var details backend.TodoDetails
			if err := decodeArgs(args, &details); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return todos.CreateTodo(ctx, details) }), nil
		case ToolTodoModify:
			var params backend.ModifyTodoParams
			if err := decodeArgs(args, &params); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return todos.ModifyTodo(ctx, params) }), nil
		case ToolTodoDelete:
			var params backend.DeleteTodoParams
			if err := decodeArgs(args, &params); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return todos.DeleteTodo(ctx, params) }), nil
		case ToolTodoList:
			var params backend.TodoListParams
			if err := decodeArgs(args, &params); err != nil {
				return argError(tool, err), nil
			}
			return callBackend(tool, func() (string, error) { return todos.ListTodos(ctx, params) }), nil
		case ToolTasklistCreate:
			title, _ := args["title"].(string)
			if title == "" {
				return contractx.ToolResult{Tool: tool, Error: "title is required"}, nil
			}
			return callBackend(tool, func() (string, error) { return todos.CreateTasklist(ctx, title) }), nil
		case ToolTasklistDelete:
			id, _ := args["tasklist_id"].(string)
			if id == "" {
				return contractx.ToolResult{Tool: tool, Error: "tasklist_id is required"}, nil
			}
			return callBackend(tool, func() (string, error) { return todos.DeleteTasklist(ctx, id) }), nil
		case ToolTasklistList:
			return callBackend(tool, func() (string, error) { return todos.ListTasklists(ctx) }), nil
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func newSearchExecutor(search contractx.SearchProvider) Executor {
	fallback := DefaultExecutor(contractx.AgentTypeCoordinator)
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		if tool != ToolWebSearch {
			return fallback(ctx, tool, args)
		}
		query, _ := args["query"].(string)
		if query == "" {
			return contractx.ToolResult{Tool: tool, Error: "query is required"}, nil
		}
		count := 0
		if raw, ok := args["count"].(float64); ok {
			count = int(raw)
		}
		return callBackend(tool, func() (string, error) { return search.Search(ctx, query, count) }), nil
	}
}

// callBackend runs one backend call and folds its failure into the result.
func callBackend(tool string, call func() (string, error)) contractx.ToolResult {
	out, err := call()
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}
	}
	return contractx.ToolResult{Tool: tool, Result: out}
}

// decodeArgs maps loosely-typed tool arguments onto a backend request struct
// through their shared JSON shape.
func decodeArgs(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode tool args: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid tool args: %w", err)
	}
	return nil
}

func argError(tool string, err error) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Error: err.Error()}
}
