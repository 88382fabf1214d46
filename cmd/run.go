package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/stuoningur/loretta/loretta"
)

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Starts the Loretta bot and admin API",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		bot, err := loretta.New(cfg)
		if err != nil {
			log.Fatalf("error creating loretta: %s", err.Error())
		}

		if err = bot.Run(ctx); err != nil {
			log.Fatalf("error running loretta: %s", err.Error())
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
