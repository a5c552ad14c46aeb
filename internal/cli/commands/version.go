package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcollect/pkg/adapter"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Print the leapcollect version, the Go runtime it was built with and the target adapters linked in.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			targets := adapter.ListAdapters()
			if len(targets) == 0 {
				targets = []string{"none"}
			}
			_, _ = fmt.Fprintf(w, "leapcollect v%s\n", version)
			_, _ = fmt.Fprintf(w, "Dynamic collection engine (%s %s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(w, "targets: %s\n", strings.Join(targets, ", "))
		},
	}
}
