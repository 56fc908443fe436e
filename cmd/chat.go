package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newChatCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive terminal chat session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.store.Init(ctx); err != nil {
				return err
			}

			pl := app.newPipeline()
			scanner := bufio.NewScanner(os.Stdin)

			fmt.Println("Type a message, or exit/quit to leave.")
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
					return nil
				}

				_, err := pl.RunTextStream(ctx, input, func(chunk string) {
					fmt.Print(chunk)
				})
				if err != nil {
					log.Error().Err(err).Msg("turn failed")
					fmt.Println("[Error during processing]")
					continue
				}
				fmt.Println()
			}
		},
	}
}
