// Package bunstore implements the calendar and todo backends on Postgres.
package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/backend"
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTasklistID is the task list used when a todo names none.
const DefaultTasklistID = "primary"

const renderLayout = "2006-01-02 15:04"

// timeLayouts are accepted for every incoming timestamp, tried in order.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

type Config struct {
	DSN string `envconfig:"DSN" required:"true"`
}

// Store implements backend.Calendar and backend.Todos on one database.
type Store struct {
	db *bun.DB
}

var (
	_ backend.Calendar = (*Store)(nil)
	_ backend.Todos    = (*Store)(nil)
)

func New(cfg Config) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}
}

// NewWithDB wraps an existing bun handle, for tests.
func NewWithDB(db *bun.DB) *Store {
	return &Store{db: db}
}

// Init creates the schema and seeds the default task list.
func (s *Store) Init(ctx context.Context) error {
	for _, model := range []any{(*eventRow)(nil), (*todoRow)(nil), (*tasklistRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	primary := &tasklistRow{ID: DefaultTasklistID, Title: "Tasks", CreatedAt: time.Now()}
	if _, err := s.db.NewInsert().Model(primary).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed default tasklist: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateEvent(ctx context.Context, details backend.EventDetails) (string, error) {
	if strings.TrimSpace(details.Summary) == "" {
		return "", fmt.Errorf("%w: event summary is required", contractx.ErrValidation)
	}
	start, err := parseTime(details.StartTime)
	if err != nil {
		return "", fmt.Errorf("%w: start_time: %v", contractx.ErrValidation, err)
	}
	end, err := parseTime(details.EndTime)
	if err != nil {
		return "", fmt.Errorf("%w: end_time: %v", contractx.ErrValidation, err)
	}
	if !end.After(start) {
		return "", fmt.Errorf("%w: end_time must be after start_time", contractx.ErrValidation)
	}

	reminders := ""
	if len(details.Reminders) > 0 {
		raw, err := json.Marshal(details.Reminders)
		if err != nil {
			return "", fmt.Errorf("encode reminders: %w", err)
		}
		reminders = string(raw)
	}

	row := &eventRow{
		ID:          uuid.NewString(),
		Summary:     details.Summary,
		StartTime:   start,
		EndTime:     end,
		Description: details.Description,
		Location:    details.Location,
		Attendees:   details.Attendees,
		Reminders:   reminders,
		Recurrence:  details.Recurrence,
		ColorID:     details.ColorID,
		CreatedAt:   time.Now(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return fmt.Sprintf("Event %q created for %s.", row.Summary, row.StartTime.Format(renderLayout)), nil
}

func (s *Store) ModifyEvent(ctx context.Context, params backend.ModifyEventParams) (string, error) {
	row, err := s.findEvent(ctx, params.SearchName, params.StartTime, params.EndTime)
	if err != nil {
		return "", err
	}

	if params.NewSummary != "" {
		row.Summary = params.NewSummary
	}
	if params.NewStartTime != "" {
		start, err := parseTime(params.NewStartTime)
		if err != nil {
			return "", fmt.Errorf("%w: new_start_time: %v", contractx.ErrValidation, err)
		}
		row.StartTime = start
	}
	if params.NewEndTime != "" {
		end, err := parseTime(params.NewEndTime)
		if err != nil {
			return "", fmt.Errorf("%w: new_end_time: %v", contractx.ErrValidation, err)
		}
		row.EndTime = end
	}
	if params.NewDescription != "" {
		row.Description = params.NewDescription
	}
	if params.NewLocation != "" {
		row.Location = params.NewLocation
	}
	if len(params.NewAttendees) > 0 {
		row.Attendees = params.NewAttendees
	}
	if len(params.NewReminders) > 0 {
		raw, err := json.Marshal(params.NewReminders)
		if err != nil {
			return "", fmt.Errorf("encode reminders: %w", err)
		}
		row.Reminders = string(raw)
	}
	if len(params.NewRecurrence) > 0 {
		row.Recurrence = params.NewRecurrence
	}
	if params.NewColorID != 0 {
		row.ColorID = params.NewColorID
	}

	if _, err := s.db.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
		return "", fmt.Errorf("update event: %w", err)
	}
	return fmt.Sprintf("Event %q updated.", row.Summary), nil
}

func (s *Store) DeleteEvent(ctx context.Context, params backend.DeleteEventParams) (string, error) {
	row, err := s.findEvent(ctx, params.SearchName, params.StartTime, params.EndTime)
	if err != nil {
		return "", err
	}
	if _, err := s.db.NewDelete().Model(row).WherePK().Exec(ctx); err != nil {
		return "", fmt.Errorf("delete event: %w", err)
	}
	return fmt.Sprintf("Event %q deleted.", row.Summary), nil
}

func (s *Store) ListEvents(ctx context.Context, params backend.EventListParams) (string, error) {
	start, err := parseTime(params.StartTime)
	if err != nil {
		return "", fmt.Errorf("%w: start_time: %v", contractx.ErrValidation, err)
	}
	end, err := parseTime(params.EndTime)
	if err != nil {
		return "", fmt.Errorf("%w: end_time: %v", contractx.ErrValidation, err)
	}

	q := s.db.NewSelect().Model((*eventRow)(nil)).
		Where("start_time >= ?", start).
		Where("start_time < ?", end).
		Order("start_time ASC")
	if params.Title != "" {
		q = q.Where("LOWER(summary) LIKE ?", "%"+strings.ToLower(params.Title)+"%")
	}
	if params.ColorID != 0 {
		q = q.Where("color_id = ?", params.ColorID)
	}
	if params.MaxResults > 0 {
		q = q.Limit(params.MaxResults)
	}

	var rows []eventRow
	if err := q.Scan(ctx, &rows); err != nil {
		return "", fmt.Errorf("list events: %w", err)
	}
	if len(rows) == 0 {
		return "No events found in the given range.", nil
	}

	var b strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %s (%s - %s)", i+1, row.Summary,
			row.StartTime.Format(renderLayout), row.EndTime.Format(renderLayout))
		if row.Location != "" {
			fmt.Fprintf(&b, " at %s", row.Location)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Store) findEvent(ctx context.Context, searchName, startTime, endTime string) (*eventRow, error) {
	if strings.TrimSpace(searchName) == "" {
		return nil, fmt.Errorf("%w: search_name is required", contractx.ErrValidation)
	}
	start, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time: %v", contractx.ErrValidation, err)
	}
	end, err := parseTime(endTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end_time: %v", contractx.ErrValidation, err)
	}

	row := new(eventRow)
	err = s.db.NewSelect().Model(row).
		Where("LOWER(summary) LIKE ?", "%"+strings.ToLower(searchName)+"%").
		Where("start_time >= ?", start).
		Where("start_time < ?", end).
		Order("start_time ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no event matching %q between %s and %s", searchName, startTime, endTime)
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return row, nil
}

func (s *Store) CreateTodo(ctx context.Context, details backend.TodoDetails) (string, error) {
	if strings.TrimSpace(details.Title) == "" {
		return "", fmt.Errorf("%w: todo title is required", contractx.ErrValidation)
	}
	status := details.Status
	if status == "" {
		status = backend.TodoStatusNeedsAction
	}
	if status != backend.TodoStatusNeedsAction && status != backend.TodoStatusCompleted {
		return "", fmt.Errorf("%w: unknown status %q", contractx.ErrValidation, status)
	}

	row := &todoRow{
		ID:         uuid.NewString(),
		TasklistID: resolveTasklist(details.TasklistID),
		Title:      details.Title,
		Notes:      details.Notes,
		Status:     status,
		CreatedAt:  time.Now(),
	}
	if details.Due != "" {
		due, err := parseTime(details.Due)
		if err != nil {
			return "", fmt.Errorf("%w: due: %v", contractx.ErrValidation, err)
		}
		row.Due = &due
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert todo: %w", err)
	}
	return fmt.Sprintf("Task %q created.", row.Title), nil
}

func (s *Store) ModifyTodo(ctx context.Context, params backend.ModifyTodoParams) (string, error) {
	row, err := s.findTodo(ctx, params.SearchName, params.TasklistID)
	if err != nil {
		return "", err
	}

	if params.NewTitle != "" {
		row.Title = params.NewTitle
	}
	if params.NewNotes != "" {
		row.Notes = params.NewNotes
	}
	if params.NewDue != "" {
		due, err := parseTime(params.NewDue)
		if err != nil {
			return "", fmt.Errorf("%w: new_due: %v", contractx.ErrValidation, err)
		}
		row.Due = &due
	}
	if params.NewStatus != "" {
		if params.NewStatus != backend.TodoStatusNeedsAction && params.NewStatus != backend.TodoStatusCompleted {
			return "", fmt.Errorf("%w: unknown status %q", contractx.ErrValidation, params.NewStatus)
		}
		row.Status = params.NewStatus
	}

	if _, err := s.db.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
		return "", fmt.Errorf("update todo: %w", err)
	}
	return fmt.Sprintf("Task %q updated.", row.Title), nil
}

func (s *Store) DeleteTodo(ctx context.Context, params backend.DeleteTodoParams) (string, error) {
	row, err := s.findTodo(ctx, params.SearchName, params.TasklistID)
	if err != nil {
		return "", err
	}
	if _, err := s.db.NewDelete().Model(row).WherePK().Exec(ctx); err != nil {
		return "", fmt.Errorf("delete todo: %w", err)
	}
	return fmt.Sprintf("Task %q deleted.", row.Title), nil
}

func (s *Store) ListTodos(ctx context.Context, params backend.TodoListParams) (string, error) {
	q := s.db.NewSelect().Model((*todoRow)(nil)).
		Where("tasklist_id = ?", resolveTasklist(params.TasklistID)).
		Order("created_at ASC")
	if params.MaxResults > 0 {
		q = q.Limit(params.MaxResults)
	}

	var rows []todoRow
	if err := q.Scan(ctx, &rows); err != nil {
		return "", fmt.Errorf("list todos: %w", err)
	}
	if len(rows) == 0 {
		return "No tasks in this list.", nil
	}

	var b strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %s [%s]", i+1, row.Title, row.Status)
		if row.Due != nil {
			fmt.Fprintf(&b, " due %s", row.Due.Format(renderLayout))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Store) findTodo(ctx context.Context, searchName, tasklistID string) (*todoRow, error) {
	if strings.TrimSpace(searchName) == "" {
		return nil, fmt.Errorf("%w: search_name is required", contractx.ErrValidation)
	}

	row := new(todoRow)
	err := s.db.NewSelect().Model(row).
		Where("tasklist_id = ?", resolveTasklist(tasklistID)).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(searchName)+"%").
		Order("created_at ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no task matching %q", searchName)
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	return row, nil
}

func (s *Store) CreateTasklist(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: tasklist title is required", contractx.ErrValidation)
	}
	row := &tasklistRow{ID: uuid.NewString(), Title: title, CreatedAt: time.Now()}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("insert tasklist: %w", err)
	}
	return fmt.Sprintf("Task list %q created with id %s.", title, row.ID), nil
}

func (s *Store) DeleteTasklist(ctx context.Context, tasklistID string) (string, error) {
	if tasklistID == DefaultTasklistID {
		return "", fmt.Errorf("%w: the default task list cannot be deleted", contractx.ErrValidation)
	}
	if _, err := s.db.NewDelete().Model((*todoRow)(nil)).Where("tasklist_id = ?", tasklistID).Exec(ctx); err != nil {
		return "", fmt.Errorf("delete tasks of list: %w", err)
	}
	res, err := s.db.NewDelete().Model((*tasklistRow)(nil)).Where("id = ?", tasklistID).Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("delete tasklist: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", fmt.Errorf("no task list with id %q", tasklistID)
	}
	return "Task list deleted.", nil
}

func (s *Store) ListTasklists(ctx context.Context) (string, error) {
	var rows []tasklistRow
	err := s.db.NewSelect().Model(&rows).Order("created_at ASC").Scan(ctx)
	if err != nil {
		return "", fmt.Errorf("list tasklists: %w", err)
	}
	if len(rows) == 0 {
		return "No task lists exist.", nil
	}

	var b strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %s (id %s)\n", i+1, row.Title, row.ID)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func resolveTasklist(id string) string {
	if strings.TrimSpace(id) == "" {
		return DefaultTasklistID
	}
	return id
}

func parseTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", trimmed)
}
