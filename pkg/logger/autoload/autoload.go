// Package autoload configures the global logger from the environment as a
// side effect of being imported.
package autoload

import (
	configx "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/config"
	logx "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
