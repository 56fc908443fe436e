package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Voice assistant orchestration core",
		Long:          "assistant routes conversational turns to capability agents for calendar and task management, over a terminal chat loop or a WebSocket voice server.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newChatCmd(app),
		newServeCmd(app),
	)

	return rootCmd
}
