package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print monitor-preview version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("monitor-preview %s\n", version)
	},
}
