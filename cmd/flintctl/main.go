package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "flintctl",
		Short:         "Run flint orchestrations from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDiaryCmd())
	root.AddCommand(newExportTodoistCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
