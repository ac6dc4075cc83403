package client

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/ringlog/internal/cmd/client/transports"
	tcpserver "github.com/rzbill/ringlog/internal/server/tcp"
)

// newSendCommand constructs the `send` command, which speaks the TCP line
// protocol directly.
func newSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [line]",
		Short: "Send a line to the TCP listener and print the reply",
		Long: "Send a line to the TCP listener and print the reply.\n\n" +
			"Use --seek X,Y to send a seek command instead; the reply then starts at\n" +
			"byte Y of record X.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			seek, _ := cmd.Flags().GetString("seek")
			wait, _ := cmd.Flags().GetDuration("wait")
			retry, _ := cmd.Flags().GetDuration("retry")

			var line string
			switch {
			case seek != "" && len(args) > 0:
				return fmt.Errorf("use either a line or --seek, not both")
			case seek != "":
				line = tcpserver.SeekCommand + seek
			case len(args) == 1:
				line = args[0]
			default:
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				line = string(b)
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if addr == "" {
				addr = socketAddrFromEnv()
			}
			sc := transports.SocketClient{Addr: addr, MaxElapsed: retry, ReplyWait: wait}
			_, err := sc.Send(cmd.Context(), []byte(line), cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().String("addr", "", "TCP listener address (default $RINGLOG_SOCKET or 127.0.0.1:9000)")
	cmd.Flags().String("seek", "", "Seek to record,offset before replying (e.g. 2,5)")
	cmd.Flags().Duration("wait", 500*time.Millisecond, "Idle time that ends the reply")
	cmd.Flags().Duration("retry", 10*time.Second, "How long to retry connecting")
	return cmd
}
