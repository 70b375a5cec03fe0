package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/poolgovd/internal/crypto/signer"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage signing key files",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate <path>",
	Short: "Generate a key file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, _ := cmd.Flags().GetString("type")
		kt := signer.ParseKeyType(typeName)
		s, err := signer.Generate(kt)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(args[0]); err == nil && !force {
			return fmt.Errorf("key file %s already exists", args[0])
		}
		if err := signer.SaveKeyFile(args[0], s); err != nil {
			return err
		}
		return printKey(cmd, s)
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show the address of a key file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := signer.LoadKeyFile(args[0])
		if err != nil {
			return err
		}
		return printKey(cmd, s)
	},
}

func printKey(cmd *cobra.Command, s signer.Signer) error {
	return printJSON(cmd.OutOrStdout(), map[string]string{
		"key_type": s.KeyType().String(),
		"address":  s.Identity().String(),
	})
}

func init() {
	keysGenerateCmd.Flags().String("type", "ed25519", "key type (ed25519, secp256k1)")
	keysGenerateCmd.Flags().Bool("force", false, "overwrite an existing key file")

	keysCmd.AddCommand(keysGenerateCmd, keysShowCmd)
	rootCmd.AddCommand(keysCmd)
}
