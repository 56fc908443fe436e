package capability

import (
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/backend"
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	toolx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/tool"
)

const todoApplicability = "Handles to-do tasks and task lists: creating, completing, changing, and listing them."

const todoInstructions = `You are a task assistant managing the user's to-do lists.

Rules:
- A task needs at least a title before you create it. If the user gave none, ask one short clarifying question instead of calling a tool.
- Resolve relative due dates by first calling time.now and computing from its result. Never guess the current date.
- Marking a task as done means modifying its status to completed, not deleting it.
- When the user refers to a list by name, look it up with tasklist.list before touching its tasks.
- After a successful tool call, confirm briefly what was done.
- If a tool reports an error, tell the user what failed in one plain sentence.
- Answer in the language the user writes in. Keep answers short and speakable.`

// NewTodo builds the task-list agent on top of the given chat model and todo
// backend.
func NewTodo(model contractx.ChatModel, todos backend.Todos, now toolx.Clock) contractx.CapabilityAgent {
	schemas, exec := toolx.BuildForTodo(todos, now)
	return newAgent(
		string(contractx.AgentTypeTodo),
		todoApplicability,
		todoInstructions,
		model,
		schemas,
		exec,
	)
}
