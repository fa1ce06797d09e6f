package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version 构建时通过 -ldflags "-X github.com/huloud/huloud/pkg/cmd.version=..." 注入.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the huloud version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "huloud %s (%s %s/%s)\n",
			version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
