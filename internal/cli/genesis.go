package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/poolgovd/internal/config"
	"github.com/LeJamon/poolgovd/internal/core/genesis"
)

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Seed an empty store with the platform record and balances",
	Long: `Seed an empty account store from a JSON genesis file. The file names
the program's upgrade authority and the initial account balances. It is read
from --file, or from genesis_file in the configuration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd.Context(), func(n *node) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				path = n.cfg.GenesisFile
			}
			if path == "" {
				return fmt.Errorf("no genesis file given")
			}

			g, err := config.LoadGenesisJSON(path)
			if err != nil {
				return err
			}
			programID, loaderID, err := n.cfg.Keys()
			if err != nil {
				return err
			}
			gc, err := g.ToGenesisConfig(programID, loaderID)
			if err != nil {
				return fmt.Errorf("invalid genesis file: %w", err)
			}

			res, err := genesis.Create(cmd.Context(), n.store, gc)
			if err != nil {
				return err
			}
			n.log.Info("genesis created",
				zap.String("platform_record", res.PlatformRecord.String()),
				zap.Int("accounts", res.Funded),
				zap.Uint64("total_supply", res.TotalSupply),
			)
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"platform_record": res.PlatformRecord.String(),
				"accounts":        res.Funded,
				"total_supply":    res.TotalSupply,
			})
		})
	},
}

func init() {
	genesisCmd.Flags().String("file", "", "genesis JSON file")
	rootCmd.AddCommand(genesisCmd)
}
