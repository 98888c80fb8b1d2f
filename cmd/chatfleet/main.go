package main

import (
	"os"

	"github.com/spf13/cobra"

	"chatfleet/internal/interfaces/cli/migrate"
	"chatfleet/internal/interfaces/cli/server"
)

func main() {
	root := &cobra.Command{
		Use:   "chatfleet",
		Short: "Usage metering and quota enforcement for WhatsApp chatbot fleets",
		Long: `ChatFleet meters per-company usage against subscription plan limits
and enforces quotas before billable actions run.`,
	}

	root.AddCommand(server.NewCommand())
	root.AddCommand(migrate.NewCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
