package capability

import (
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/backend"
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	toolx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/tool"
)

const schedulerApplicability = "Handles appointments, meetings, and reminders in the calendar."

const schedulerInstructions = `You are a scheduling assistant managing the user's calendar.

Rules:
- Never create, modify, or delete an event without a concrete title and time. If either is missing or ambiguous, ask one short clarifying question instead of calling a tool.
- Resolve relative dates ("tomorrow", "next friday", "in two hours") by first calling time.now and computing from its result. Never guess the current date.
- Events default to one hour when no end time is given.
- After a successful tool call, confirm briefly what was done, including the resolved date and time.
- If a tool reports an error, tell the user what failed in one plain sentence.
- Answer in the language the user writes in. Keep answers short and speakable.`

// NewScheduler builds the calendar agent on top of the given chat model and
// calendar backend.
func NewScheduler(model contractx.ChatModel, cal backend.Calendar, now toolx.Clock) contractx.CapabilityAgent {
	schemas, exec := toolx.BuildForScheduler(cal, now)
	return newAgent(
		string(contractx.AgentTypeScheduler),
		schedulerApplicability,
		schedulerInstructions,
		model,
		schemas,
		exec,
	)
}
