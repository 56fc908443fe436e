package bunstore

import (
	"time"

	"github.com/uptrace/bun"
)

type eventRow struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID          string    `bun:"id,pk"`
	Summary     string    `bun:"summary,notnull"`
	StartTime   time.Time `bun:"start_time,notnull"`
	EndTime     time.Time `bun:"end_time,notnull"`
	Description string    `bun:"description"`
	Location    string    `bun:"location"`
	Attendees   []string  `bun:"attendees,array"`
	// Reminders and recurrence rules are stored as JSON text; they are only
	// ever read back whole.
	Reminders  string    `bun:"reminders"`
	Recurrence []string  `bun:"recurrence,array"`
	ColorID    int       `bun:"color_id"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type todoRow struct {
	bun.BaseModel `bun:"table:todos,alias:t"`

	ID         string     `bun:"id,pk"`
	TasklistID string     `bun:"tasklist_id,notnull"`
	Title      string     `bun:"title,notnull"`
	Notes      string     `bun:"notes"`
	Due        *time.Time `bun:"due"`
	Status     string     `bun:"status,notnull"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

type tasklistRow struct {
	bun.BaseModel `bun:"table:tasklists,alias:tl"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
