package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/LeJamon/poolgovd/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the audit journal",
}

var journalTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the newest journal events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withNode(cmd.Context(), func(n *node) error {
			events, err := n.journal.Tail(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if events == nil {
				events = []journal.Event{}
			}
			return printJSON(cmd.OutOrStdout(), events)
		})
	},
}

var journalVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the hash chain of the whole journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd.Context(), func(n *node) error {
			err := n.journal.Verify(cmd.Context())
			var chainErr *journal.ChainError
			if errors.As(err, &chainErr) {
				_ = printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"valid":  false,
					"seq":    chainErr.Seq,
					"reason": chainErr.Reason,
				})
				return err
			}
			if err != nil {
				return err
			}
			out := map[string]interface{}{"valid": true}
			if head := n.journal.Head(); head != nil {
				out["seq"] = head.Seq
				out["head"] = head.Hash.String()
			}
			return printJSON(cmd.OutOrStdout(), out)
		})
	},
}

func init() {
	journalTailCmd.Flags().Int("limit", 20, "number of events (0 for all)")

	journalCmd.AddCommand(journalTailCmd, journalVerifyCmd)
	rootCmd.AddCommand(journalCmd)
}
