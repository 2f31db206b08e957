package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aki-13627/animalia/internal/tools/migrate"
	"github.com/aki-13627/animalia/internal/tools/obscheck"
	"github.com/aki-13627/animalia/internal/tools/seed"
)

func main() {
	root := &cobra.Command{
		Use:   "tools",
		Short: "Operational tools for the animalia backend",
	}
	root.AddCommand(
		migrate.NewRootCommand(),
		seed.NewRootCommand(),
		obscheck.NewRootCommand(),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
