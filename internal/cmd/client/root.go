package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the ringlog client.
// It registers the log, archive, send and health commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "ringlog",
		Short: "ringlog client commands",
	}
	root.AddCommand(
		NewLogCommand(baseURL),
		newArchiveCommand(baseURL),
		newSendCommand(),
		newHealthCommand(),
	)
	return root
}
