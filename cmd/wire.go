package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/agents/capability"
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/agents/coordinator"
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/backend/bunstore"
	contractx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/contract"
	llmx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/llm"
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/memory"
	"github.com/RaphaelKarmalker/personal-assistant-v2/agent/pipeline"
	serverx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/server"
	configx "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/config"
	openrouterx "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/openrouter"
	speechx "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/speech"
	websearchx "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/websearch"
)

type app struct {
	dispatcher contractx.Dispatcher
	store      *bunstore.Store
	codec      contractx.SpeechCodec
	voice      string
	serverCfg  serverx.Config
}

func wireApp() (*app, error) {
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, fmt.Errorf("wire llm config: %w", err)
	}
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}

	coordModel := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeCoordinator))
	schedModel := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeScheduler))
	todoModel := openrouterx.NewClient(llmCfg.OpenRouterFor(contractx.AgentTypeTodo))
	if coordModel == nil || schedModel == nil || todoModel == nil {
		return nil, fmt.Errorf("%w: openrouter client not configured", contractx.ErrValidation)
	}

	storeCfg, err := configx.New[bunstore.Config]("DATABASE")
	if err != nil {
		return nil, fmt.Errorf("wire database config: %w", err)
	}
	store := bunstore.New(*storeCfg)

	registry := capability.NewRegistry(schedModel, todoModel, store, store, time.Now)

	// Web search is optional; without a key the coordinator answers from the
	// model alone.
	var search contractx.SearchProvider
	if searchCfg, err := configx.New[websearchx.Config]("BRAVE"); err == nil {
		search = websearchx.NewClient(*searchCfg)
	} else {
		log.Debug().Err(err).Msg("web search disabled")
	}

	a := &app{
		dispatcher: coordinator.New(coordModel, registry, search),
		store:      store,
	}

	// The speech codec is optional as well; without it only the text paths
	// are served.
	if speechCfg, err := configx.New[speechx.Config]("SPEECH"); err == nil {
		a.codec = speechx.NewCodec(*speechCfg)
		a.voice = speechCfg.Voice
	} else {
		log.Debug().Err(err).Msg("speech codec disabled")
	}

	serverCfg, err := configx.New[serverx.Config]("SERVER")
	if err != nil {
		return nil, fmt.Errorf("wire server config: %w", err)
	}
	a.serverCfg = *serverCfg

	return a, nil
}

// newPipeline builds one session: a fresh context window bound to the shared
// dispatcher.
func (a *app) newPipeline() *pipeline.Pipeline {
	opts := []pipeline.Option{}
	if a.codec != nil {
		opts = append(opts, pipeline.WithSpeechCodec(a.codec, a.voice))
	}
	return pipeline.New(a.dispatcher, memory.NewWindow(), opts...)
}
