package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AlexZinkM/token-dapp/internal/config"
	"github.com/AlexZinkM/token-dapp/solana"
)

func keystoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Manage the local encrypted keystore",
	}

	generate := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate a new wallet into an encrypted .cwt keystore",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				path = cfg.KeystorePath
			}
			if path == "" {
				return errors.New("keystore path is required: pass it as an argument or set KEYSTORE_PATH")
			}
			return generateKeystore(cmd, path)
		},
	}

	cmd.AddCommand(generate)
	return cmd
}

func generateKeystore(cmd *cobra.Command, path string) error {
	password, err := config.ReadPassword("New keystore password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	confirm, err := config.ReadPassword("Repeat password: ")
	if err != nil {
		return err
	}
	defer clear(confirm)

	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	address, err := solana.GenerateWallet(path, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s written to %s\n", address, path)
	return nil
}
