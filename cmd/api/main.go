package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "support-desk",
	Short:        "Support ticketing REST API",
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, adminCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("support-desk: %v", err)
	}
}
