package cli

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/LeJamon/poolgovd/internal/core/processor"
	"github.com/LeJamon/poolgovd/internal/crypto/signer"
)

// addKeyFlag registers the --key flag on commands that submit signed calls.
func addKeyFlag(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "key file of the signing authority")
	_ = cmd.MarkFlagRequired("key")
}

// signRequest loads the key named by --key and signs req with it.
func signRequest(cmd *cobra.Command, req processor.Request) (signer.Envelope, error) {
	path, err := cmd.Flags().GetString("key")
	if err != nil {
		return signer.Envelope{}, err
	}
	s, err := signer.LoadKeyFile(path)
	if err != nil {
		return signer.Envelope{}, err
	}
	return processor.Sign(s, req)
}

// parseKey parses a base58 address argument.
func parseKey(name, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return key, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return key, nil
}

// applyOutput is the printed form of a processor.ApplyResult.
type applyOutput struct {
	Result  string `json:"result"`
	Code    int    `json:"code"`
	Applied bool   `json:"applied"`
	Message string `json:"message,omitempty"`
}

func printApply(cmd *cobra.Command, res processor.ApplyResult) error {
	return printJSON(cmd.OutOrStdout(), applyOutput{
		Result:  res.Result.String(),
		Code:    int(res.Result),
		Applied: res.Applied,
		Message: res.Message,
	})
}
