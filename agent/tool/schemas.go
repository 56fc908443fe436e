package tool

import (
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
)

func schedulerSchemas() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        ToolCalendarCreate,
			Description: "Create a new calendar event. Use the current date from time.now as the reference for relative dates.",
			Parameters: objectSchema(map[string]any{
				"summary":     stringProp("Title of the event"),
				"start_time":  stringProp("Start time in ISO format, e.g. '2025-04-07T10:00:00'"),
				"end_time":    stringProp("End time in ISO format"),
				"description": stringProp("Description of the event"),
				"location":    stringProp("Venue or meeting location"),
				"attendees":   stringArrayProp("Attendee email addresses"),
				"reminders": map[string]any{
					"type":        "array",
					"description": "Reminders, e.g. [{\"method\": \"email\", \"minutes\": 10}]",
					"items": objectSchema(map[string]any{
						"method":  stringProp("Reminder method (email, popup)"),
						"minutes": intProp("Minutes before the event"),
					}, "method", "minutes"),
				},
				"recurrence": stringArrayProp("Recurrence rules, e.g. ['RRULE:FREQ=DAILY;COUNT=5']"),
				"color_id":   intProp("Color tag for categorisation"),
			}, "summary", "start_time", "end_time"),
		},
		{
			Name:        ToolCalendarModify,
			Description: "Modify an existing event matched by a title keyword within a time range.",
			Parameters: objectSchema(map[string]any{
				"search_name":     stringProp("Part of the title of the event to change"),
				"start_time":      stringProp("Start of the search range in ISO format"),
				"end_time":        stringProp("End of the search range in ISO format"),
				"new_summary":     stringProp("New title"),
				"new_start_time":  stringProp("New start time in ISO format"),
				"new_end_time":    stringProp("New end time in ISO format"),
				"new_description": stringProp("New description"),
				"new_location":    stringProp("New location"),
				"new_attendees":   stringArrayProp("New attendee email addresses"),
			}, "search_name", "start_time", "end_time"),
		},
		{
			Name:        ToolCalendarDelete,
			Description: "Delete an event matched by a title keyword within a time range.",
			Parameters: objectSchema(map[string]any{
				"search_name": stringProp("Part of the title of the event to delete"),
				"start_time":  stringProp("Start of the search range in ISO format"),
				"end_time":    stringProp("End of the search range in ISO format"),
			}, "search_name", "start_time", "end_time"),
		},
		{
			Name:        ToolCalendarList,
			Description: "List events in a time range, optionally filtered by color, title keyword, and count.",
			Parameters: objectSchema(map[string]any{
				"start_time":  stringProp("Start of the range in ISO format"),
				"end_time":    stringProp("End of the range in ISO format"),
				"max_results": intProp("Maximum number of events to show"),
				"color_id":    intProp("Color tag filter"),
				"title":       stringProp("Title keyword filter"),
			}, "start_time", "end_time"),
		},
		timeNowSchema(),
	}
}

func todoSchemas() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        ToolTodoCreate,
			Description: "Create a new to-do task. Use the current date from time.now for relative due dates.",
			Parameters: objectSchema(map[string]any{
				"title":       stringProp("Title of the task"),
				"notes":       stringProp("Free-form notes"),
				"due":         stringProp("Due timestamp in ISO format"),
				"status":      stringProp("Task status: needsAction or completed"),
				"tasklist_id": stringProp("Target task list id; defaults to the primary list"),
			}, "title"),
		},
		{
			Name:        ToolTodoModify,
			Description: "Modify an existing to-do task matched by a title keyword.",
			Parameters: objectSchema(map[string]any{
				"search_name": stringProp("Part of the title of the task to change"),
				"tasklist_id": stringProp("Task list to search in"),
				"new_title":   stringProp("New title"),
				"new_notes":   stringProp("New notes"),
				"new_due":     stringProp("New due timestamp in ISO format"),
				"new_status":  stringProp("New status: needsAction or completed"),
			}, "search_name"),
		},
		{
			Name:        ToolTodoDelete,
			Description: "Delete a to-do task matched by a title keyword.",
			Parameters: objectSchema(map[string]any{
				"search_name": stringProp("Part of the title of the task to delete"),
				"tasklist_id": stringProp("Task list to search in"),
			}, "search_name"),
		},
		{
			Name:        ToolTodoList,
			Description: "List the tasks in one task list.",
			Parameters: objectSchema(map[string]any{
				"tasklist_id": stringProp("Task list id; defaults to the primary list"),
				"max_results": intProp("Maximum number of tasks to show"),
			}),
		},
		{
			Name:        ToolTasklistCreate,
			Description: "Create a new task list.",
			Parameters: objectSchema(map[string]any{
				"title": stringProp("Title of the task list"),
			}, "title"),
		},
		{
			Name:        ToolTasklistDelete,
			Description: "Delete a task list.",
			Parameters: objectSchema(map[string]any{
				"tasklist_id": stringProp("Id of the task list to delete"),
			}, "tasklist_id"),
		},
		{
			Name:        ToolTasklistList,
			Description: "List all existing task lists.",
			Parameters:  objectSchema(map[string]any{}),
		},
		timeNowSchema(),
	}
}

func searchSchemas() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        ToolWebSearch,
			Description: "Search the web and return titled result snippets.",
			Parameters: objectSchema(map[string]any{
				"query": stringProp("Natural language search query"),
				"count": intProp("Number of results to return"),
			}, "query"),
		},
	}
}

func timeNowSchema() contractx.ToolSchema {
	return contractx.ToolSchema{
		Name:        ToolTimeNow,
		Description: "Return the current date and time, default layout '2006-01-02 15:04:05'. Always resolve relative dates against this value.",
		Parameters: objectSchema(map[string]any{
			"layout": stringProp("Optional Go time layout for the result"),
		}),
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func stringArrayProp(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": desc,
		"items":       map[string]any{"type": "string"},
	}
}
