package main

import (
	"github.com/spf13/cobra"

	"github.com/AlexZinkM/token-dapp/internal/config"
)

var envFile = ""

var rootCmd = cobra.Command{
	Use:           "tokendapp",
	Short:         "Solana wallet session and token service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func rootCommand() *cobra.Command {
	rootCmd.AddCommand(&serveCmd, keystoreCmd())
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", "", "the env file to load")

	return &rootCmd
}

func loadConfig() (*config.Config, error) {
	if err := config.Init(envFile); err != nil {
		return nil, err
	}
	return config.Get(), nil
}
