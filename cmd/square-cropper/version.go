package main

import (
	"fmt"

	"github.com/spf13/cobra"

	squarecropper "github.com/unusual9guy/square-cropper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "square-cropper %s\n", squarecropper.GetVersion())
	},
}
