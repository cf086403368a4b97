package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"photobox/internal/security"
)

var (
	keyPub  string
	keyPriv string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create an Ed25519 key pair for signing history entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := security.GenerateKeyPair()
		if err != nil {
			return err
		}
		if err := security.SaveKeyPair(pub, priv, keyPub, keyPriv); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\nset history.signing_key to %s\n", keyPub, keyPriv, keyPriv)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keyPub, "public", "keys/photobox.pub", "Public key output path")
	keygenCmd.Flags().StringVar(&keyPriv, "private", "keys/photobox.priv", "Private key output path")
	rootCmd.AddCommand(keygenCmd)
}
