package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/seuss/internal/seuss/app"
	seusshttp "github.com/aussiebroadwan/seuss/internal/seuss/http"
)

var (
	// Set via ldflags at build time
	commit    = "unknown"
	buildDate = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seuss version %s\n", app.BuildVersion)
			fmt.Fprintf(out, "  redfish:    %s\n", seusshttp.RedfishVersion)
			fmt.Fprintf(out, "  commit:     %s\n", commit)
			fmt.Fprintf(out, "  built:      %s\n", buildDate)
			fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
