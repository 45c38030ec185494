// AngelaMos | 2026
// commands.go

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/advisory-backend/internal/auth"
	"github.com/carterperez-dev/advisory-backend/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context(), configPath)
	},
}

var (
	privateKeyOut string
	publicKeyOut  string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ES256 key pair for signing access tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := auth.GenerateKeyPair(privateKeyOut, publicKeyOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privateKeyOut, publicKeyOut)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the configured application version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n",
			cfg.App.Name, cfg.App.Version, runtime.Version())
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&privateKeyOut, "private", "keys/private.pem", "private key output path")
	keygenCmd.Flags().StringVar(&publicKeyOut, "public", "keys/public.pem", "public key output path")
}
