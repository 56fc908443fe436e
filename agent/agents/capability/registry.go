package capability

import (
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/backend"
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	toolx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/tool"
)

type registryImpl struct {
	scheduler contractx.CapabilityAgent
	todo      contractx.CapabilityAgent
}

// NewRegistry wires the closed set of capability agents. Each agent gets its
// own chat model so temperatures and model names can differ per domain.
func NewRegistry(
	schedulerModel contractx.ChatModel,
	todoModel contractx.ChatModel,
	cal backend.Calendar,
	todos backend.Todos,
	now toolx.Clock,
) contractx.Registry {
	return &registryImpl{
		scheduler: NewScheduler(schedulerModel, cal, now),
		todo:      NewTodo(todoModel, todos, now),
	}
}

func (r *registryImpl) Scheduler() contractx.CapabilityAgent { return r.scheduler }

func (r *registryImpl) Todo() contractx.CapabilityAgent { return r.todo }

func (r *registryImpl) All() []contractx.CapabilityAgent {
	return []contractx.CapabilityAgent{r.scheduler, r.todo}
}
