package cli

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/LeJamon/poolgovd/internal/core/processor"
)

var treasuryCmd = &cobra.Command{
	Use:   "treasury",
	Short: "Treasury balance, withdrawal and fee consolidation",
}

var treasuryInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show treasury balances and analytics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd.Context(), func(n *node) error {
			info, err := n.proc.TreasuryInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		})
	},
}

var treasuryWithdrawCmd = &cobra.Command{
	Use:   "withdraw [amount]",
	Short: "Withdraw available treasury funds",
	Long: `Withdraw amount from the treasury. Omitting the amount or passing 0
withdraws everything above the reserve. Funds go to --to or to the signer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req processor.WithdrawRequest
		if len(args) == 1 {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			req.Amount = amount
		}
		if to, _ := cmd.Flags().GetString("to"); to != "" {
			dest, err := parseKey("destination", to)
			if err != nil {
				return err
			}
			req.Destination = &dest
		}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.WithdrawTreasuryFees(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var treasuryConsolidateCmd = &cobra.Command{
	Use:   "consolidate <pool-id>...",
	Short: "Move pending pool fees into the treasury",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := processor.ConsolidateRequest{Pools: make([]solana.PublicKey, 0, len(args))}
		for _, arg := range args {
			poolID, err := parseKey("pool", arg)
			if err != nil {
				return err
			}
			req.Pools = append(req.Pools, poolID)
		}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			summary, err := n.proc.ConsolidatePoolFees(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		})
	},
}

func init() {
	treasuryWithdrawCmd.Flags().String("to", "", "destination account (defaults to the signer)")
	addKeyFlag(treasuryWithdrawCmd)
	addKeyFlag(treasuryConsolidateCmd)

	treasuryCmd.AddCommand(treasuryInfoCmd, treasuryWithdrawCmd, treasuryConsolidateCmd)
	rootCmd.AddCommand(treasuryCmd)
}
