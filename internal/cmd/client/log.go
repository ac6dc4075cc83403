package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/ringlog/internal/cmd/client/transports"
)

// NewLogCommand constructs the `log` command group and subcommands.
func NewLogCommand(baseURL BaseURLFunc) *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Ring log operations"}
	logCmd.AddCommand(
		newLogStatsCommand(baseURL),
		newLogRecordsCommand(baseURL),
		newLogReadCommand(baseURL),
		newLogSeekCommand(baseURL),
		newLogWriteCommand(baseURL),
		newLogTailCommand(baseURL),
	)
	return logCmd
}

func newLogStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ring state and counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := getTransport(baseURL).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newLogRecordsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List live records, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			recs, err := getTransport(baseURL).Records(cmd.Context(), filter, limit)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\t%d\t%q\n", r.Index, r.Offset, r.Size, r.Text)
			}
			return nil
		},
	}
	cmd.Flags().String("filter", "", "CEL filter over index, offset, size, text, json")
	cmd.Flags().Int("limit", 0, "Maximum records to list")
	return cmd
}

func newLogReadCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print raw log contents from an offset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			offset, _ := cmd.Flags().GetInt64("offset")
			limit, _ := cmd.Flags().GetInt("limit")
			b, err := getTransport(baseURL).Read(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().Int64("offset", 0, "Logical byte offset to start from")
	cmd.Flags().Int("limit", 0, "Maximum bytes to read (0 = to the end)")
	return cmd
}

func newLogSeekCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seek",
		Short: "Resolve a record index and intra-record offset to an absolute offset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			record, _ := cmd.Flags().GetInt("record")
			offset, _ := cmd.Flags().GetInt64("offset")
			abs, err := getTransport(baseURL).Seek(cmd.Context(), record, offset)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	}
	cmd.Flags().Int("record", 0, "Logical record index (0 = oldest)")
	cmd.Flags().Int64("offset", 0, "Offset within the record")
	return cmd
}

func newLogWriteCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write [text]",
		Short: "Append delimited records (from the argument or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 1 {
				data = []byte(args[0])
				if noNL, _ := cmd.Flags().GetBool("no-newline"); !noNL && !strings.HasSuffix(args[0], "\n") {
					data = append(data, '\n')
				}
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				data = b
			}
			res, err := getTransport(baseURL).Write(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "records: %d pending_bytes: %d\n", res.Records, res.PendingBytes)
			return nil
		},
	}
	cmd.Flags().Bool("no-newline", false, "Do not terminate the argument with a newline")
	return cmd
}

func newLogTailCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow records as they are appended",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, _ := cmd.Flags().GetString("from")
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			if from != "" && from != "earliest" && from != "latest" {
				return fmt.Errorf("invalid --from %q; expected earliest or latest", from)
			}
			if from == "latest" {
				from = ""
			}
			req := transports.TailRequest{From: from, Filter: filter, Limit: limit}
			return getTransport(baseURL).Tail(cmd.Context(), req, func(r transports.Record) error {
				_, err := io.WriteString(cmd.OutOrStdout(), r.Text)
				return err
			})
		},
	}
	cmd.Flags().String("from", "latest", "Start position: earliest|latest")
	cmd.Flags().String("filter", "", "CEL filter over index, offset, size, text, json")
	cmd.Flags().Int("limit", 0, "Stop after this many records")
	return cmd
}

func newArchiveCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List records released from the ring, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := getTransport(baseURL).Archive(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().Int("limit", 100, "Maximum entries to list")
	return cmd
}
