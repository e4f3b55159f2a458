package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Se completan con ldflags al compilar
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "barberbot",
		Short:         "Bot de WhatsApp para turnos de Unblessed Barbershop",
		Long:          "barberbot atiende el WhatsApp de la barbería: responde consultas con Gemini y agenda turnos en el calendario vía Make.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newArchiveCmd())
	cmd.AddCommand(newUnarchiveCmd())
	cmd.AddCommand(newParseCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "barberbot %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
