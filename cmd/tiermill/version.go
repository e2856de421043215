package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tiermill %s (commit=%s, built=%s, %s/%s)\n",
				version, commit, date, runtime.GOOS, runtime.GOARCH)
		},
	}
}
