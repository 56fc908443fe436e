package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	openrouterx "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	CoordinatorModel       string  `envconfig:"COORDINATOR_MODEL" split_words:"true"`
	SchedulerModel         string  `envconfig:"SCHEDULER_MODEL" split_words:"true"`
	TodoModel              string  `envconfig:"TODO_MODEL" split_words:"true"`
	CoordinatorTemperature float32 `envconfig:"COORDINATOR_TEMPERATURE" split_words:"true" default:"-1"`
	SchedulerTemperature   float32 `envconfig:"SCHEDULER_TEMPERATURE" split_words:"true" default:"-1"`
	TodoTemperature        float32 `envconfig:"TODO_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the provider config for one agent: the per-agent
// model and temperature when set, the shared defaults otherwise.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypeCoordinator:
		if v := strings.TrimSpace(c.CoordinatorModel); v != "" {
			modelName = v
		}
		if c.CoordinatorTemperature >= 0 {
			temp = c.CoordinatorTemperature
		}
	case contractx.AgentTypeScheduler:
		if v := strings.TrimSpace(c.SchedulerModel); v != "" {
			modelName = v
		}
		if c.SchedulerTemperature >= 0 {
			temp = c.SchedulerTemperature
		}
	case contractx.AgentTypeTodo:
		if v := strings.TrimSpace(c.TodoModel); v != "" {
			modelName = v
		}
		if c.TodoTemperature >= 0 {
			temp = c.TodoTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
