package main

import (
	"os"

	"github.com/RaphaelKarmalker/personal-assistant-v2/cmd"
	_ "github.com/RaphaelKarmalker/personal-assistant-v2/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
