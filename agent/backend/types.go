package backend

// Reminder is one notification attached to a calendar event.
type Reminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// EventDetails carries everything needed to create a calendar event.
// Times are ISO-8601 strings; the backend parses and validates them.
type EventDetails struct {
	Summary     string     `json:"summary"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Attendees   []string   `json:"attendees,omitempty"`
	Reminders   []Reminder `json:"reminders,omitempty"`
	Recurrence  []string   `json:"recurrence,omitempty"`
	ColorID     int        `json:"color_id,omitempty"`
}

// ModifyEventParams locates an event by a title substring within a time range
// and applies the non-empty New* fields.
type ModifyEventParams struct {
	SearchName     string     `json:"search_name"`
	StartTime      string     `json:"start_time"`
	EndTime        string     `json:"end_time"`
	NewSummary     string     `json:"new_summary,omitempty"`
	NewStartTime   string     `json:"new_start_time,omitempty"`
	NewEndTime     string     `json:"new_end_time,omitempty"`
	NewDescription string     `json:"new_description,omitempty"`
	NewLocation    string     `json:"new_location,omitempty"`
	NewAttendees   []string   `json:"new_attendees,omitempty"`
	NewReminders   []Reminder `json:"new_reminders,omitempty"`
	NewRecurrence  []string   `json:"new_recurrence,omitempty"`
	NewColorID     int        `json:"new_color_id,omitempty"`
}

type EventListParams struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	MaxResults int    `json:"max_results,omitempty"`
	ColorID    int    `json:"color_id,omitempty"`
	Title      string `json:"title,omitempty"`
}

type DeleteEventParams struct {
	SearchName string `json:"search_name"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// Todo statuses follow the task-store convention.
const (
	TodoStatusNeedsAction = "needsAction"
	TodoStatusCompleted   = "completed"
)

type TodoDetails struct {
	Title      string `json:"title"`
	Notes      string `json:"notes,omitempty"`
	Due        string `json:"due,omitempty"`
	Status     string `json:"status,omitempty"`
	TasklistID string `json:"tasklist_id,omitempty"`
}

type ModifyTodoParams struct {
	SearchName string `json:"search_name"`
	TasklistID string `json:"tasklist_id,omitempty"`
	NewTitle   string `json:"new_title,omitempty"`
	NewNotes   string `json:"new_notes,omitempty"`
	NewDue     string `json:"new_due,omitempty"`
	NewStatus  string `json:"new_status,omitempty"`
}

type TodoListParams struct {
	TasklistID string `json:"tasklist_id,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type DeleteTodoParams struct {
	SearchName string `json:"search_name"`
	TasklistID string `json:"tasklist_id,omitempty"`
}
