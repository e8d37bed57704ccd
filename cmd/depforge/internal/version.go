package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the release build; "devel" otherwise.
var Version = "devel"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the depforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("depforge %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
