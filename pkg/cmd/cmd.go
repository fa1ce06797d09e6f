// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huloud/huloud/pkg/app"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "huloud",
		Short: "A personal cloud storage service",
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewApp(configPath).Run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	registerConfigsCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
