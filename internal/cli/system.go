package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LeJamon/poolgovd/internal/core/processor"
)

var initCmd = &cobra.Command{
	Use:   "init <initial-admin>",
	Short: "Create the system and treasury records",
	Long: `Create the system state and main treasury. Must be signed by the
program's upgrade authority, which also funds the treasury reserve.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, err := parseKey("admin", args[0])
		if err != nil {
			return err
		}
		rent, _ := cmd.Flags().GetUint64("rent")
		req := processor.InitializeRequest{InitialAdmin: admin, RentExemptMinimum: rent}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.Initialize(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printApply(cmd, res)
		})
	},
}

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System pause and admin rotation",
}

var systemPauseCmd = &cobra.Command{
	Use:   "pause <reason-code>",
	Short: "Pause the whole system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return err
		}
		req := processor.PauseSystemRequest{ReasonCode: uint8(code)}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.PauseSystem(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printApply(cmd, res)
		})
	},
}

var systemUnpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Resume the system and start the withdrawal lock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := processor.UnpauseSystemRequest{}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.UnpauseSystem(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printApply(cmd, res)
		})
	},
}

var systemAdminChangeCmd = &cobra.Command{
	Use:   "admin-change <new-admin>",
	Short: "Propose, complete or cancel an admin rotation",
	Long: `Propose a new admin. Repeating the call with the same key after the
timelock completes the rotation. Passing the current admin cancels a
pending change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, err := parseKey("admin", args[0])
		if err != nil {
			return err
		}
		req := processor.AdminChangeRequest{NewAdmin: admin}
		env, err := signRequest(cmd, req)
		if err != nil {
			return err
		}
		return withNode(cmd.Context(), func(n *node) error {
			res, err := n.proc.ProcessAdminChange(cmd.Context(), env, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"status":         res.Status.String(),
				"previous_admin": res.PreviousAdmin.String(),
				"remaining":      res.Remaining,
			})
		})
	},
}

var systemStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the system state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd.Context(), func(n *node) error {
			status, err := n.proc.SystemStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		})
	},
}

func init() {
	initCmd.Flags().Uint64("rent", 0, "treasury reserve (0 uses the configured default)")
	addKeyFlag(initCmd)
	addKeyFlag(systemPauseCmd)
	addKeyFlag(systemUnpauseCmd)
	addKeyFlag(systemAdminChangeCmd)

	systemCmd.AddCommand(systemPauseCmd, systemUnpauseCmd, systemAdminChangeCmd, systemStatusCmd)
	rootCmd.AddCommand(initCmd, systemCmd)
}
