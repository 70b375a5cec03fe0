package cli

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/LeJamon/poolgovd/internal/core/fees"
	"github.com/LeJamon/poolgovd/internal/core/pool"
	"github.com/LeJamon/poolgovd/internal/core/processor"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Pool registration, pause flags and fees",
}

var poolRegisterCmd = &cobra.Command{
	Use:   "register [pool-id]",
	Short: "Register a pool and pay the creation fee",
	Long: `Register a pool. The signer pays the pool creation fee into the
treasury and funds the pool account reserve. A random pool id is used when
none is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		poolID := solana.NewWallet().PublicKey()
		if len(args) == 1 {
			var err error
			if poolID, err = parseKey("pool", args[0]); err != nil {
				return err
			}
		}
		req := processor.RegisterPoolRequest{PoolID: poolID}
		if owner, _ := cmd.Flags().GetString("owner"); owner != "" {
			var err error
			if req.Owner, err = parseKey("owner", owner); err != nil {
				return err
			}
		}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.RegisterPool(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"pool_id": poolID.String(),
				"address": n.proc.PoolAddress(poolID).String(),
				"result":  res.Result.String(),
				"message": res.Message,
			})
		})
	},
}

// pauseFlags converts the --liquidity and --swaps selectors into pause
// flags. Selecting neither means both.
func pauseFlags(cmd *cobra.Command) uint8 {
	liquidity, _ := cmd.Flags().GetBool("liquidity")
	swaps, _ := cmd.Flags().GetBool("swaps")
	var flags uint8
	if liquidity {
		flags |= pool.PauseLiquidity
	}
	if swaps {
		flags |= pool.PauseSwaps
	}
	if flags == 0 {
		flags = pool.PauseBoth
	}
	return flags
}

func newPoolFlagsCmd(use, short string, pause bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <pool-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			poolID, err := parseKey("pool", args[0])
			if err != nil {
				return err
			}
			flags := pauseFlags(cmd)

			var req processor.Request = processor.UnpausePoolRequest{Pool: poolID, Flags: flags}
			if pause {
				req = processor.PausePoolRequest{Pool: poolID, Flags: flags}
			}
			env, err := signRequest(cmd, req)
			if err != nil {
				return err
			}
			return withNode(cmd.Context(), func(n *node) error {
				var changed []string
				if pause {
					changed, err = n.proc.PausePool(cmd.Context(), env, req.(processor.PausePoolRequest))
				} else {
					changed, err = n.proc.UnpausePool(cmd.Context(), env, req.(processor.UnpausePoolRequest))
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"changed": changed})
			})
		},
	}
	cmd.Flags().Bool("liquidity", false, "select liquidity operations")
	cmd.Flags().Bool("swaps", false, "select swaps")
	addKeyFlag(cmd)
	return cmd
}

var poolFeesCmd = &cobra.Command{
	Use:   "fees <pool-id>",
	Short: "Update the per-operation fees of a pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		poolID, err := parseKey("pool", args[0])
		if err != nil {
			return err
		}
		req := processor.UpdatePoolFeesRequest{Pool: poolID}
		if cmd.Flags().Changed("liquidity-fee") {
			req.Flags |= fees.UpdateLiquidity
			req.LiquidityFee, _ = cmd.Flags().GetUint64("liquidity-fee")
		}
		if cmd.Flags().Changed("swap-fee") {
			req.Flags |= fees.UpdateSwap
			req.SwapFee, _ = cmd.Flags().GetUint64("swap-fee")
		}
		if req.Flags == 0 {
			return fmt.Errorf("at least one of --liquidity-fee or --swap-fee is required")
		}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.UpdatePoolFees(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printApply(cmd, res)
		})
	},
}

var poolChargeCmd = &cobra.Command{
	Use:   "charge <pool-id> <liquidity|swap>",
	Short: "Charge the signer the fee for one pool operation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		poolID, err := parseKey("pool", args[0])
		if err != nil {
			return err
		}
		kind, err := fees.ParseKind(args[1])
		if err != nil {
			return err
		}
		req := processor.ChargeFeeRequest{Pool: poolID, Kind: kind}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.ChargeOperationFee(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printApply(cmd, res)
		})
	},
}

var poolInfoCmd = &cobra.Command{
	Use:   "info <pool-id>",
	Short: "Show pool flags, fees and pending balances",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		poolID, err := parseKey("pool", args[0])
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			info, err := n.proc.PoolInfo(cmd.Context(), poolID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		})
	},
}

func init() {
	poolRegisterCmd.Flags().String("owner", "", "pool owner (defaults to the signer)")
	addKeyFlag(poolRegisterCmd)

	poolFeesCmd.Flags().Uint64("liquidity-fee", 0, "new liquidity fee")
	poolFeesCmd.Flags().Uint64("swap-fee", 0, "new swap fee")
	addKeyFlag(poolFeesCmd)
	addKeyFlag(poolChargeCmd)

	poolCmd.AddCommand(
		poolRegisterCmd,
		newPoolFlagsCmd("pause", "Pause liquidity operations or swaps of a pool", true),
		newPoolFlagsCmd("unpause", "Resume liquidity operations or swaps of a pool", false),
		poolFeesCmd,
		poolChargeCmd,
		poolInfoCmd,
	)
	rootCmd.AddCommand(poolCmd)
}
