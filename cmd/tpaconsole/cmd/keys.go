package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/tpaconsole/internal/core/auth"
	"github.com/solatis/tpaconsole/internal/core/config"
	"github.com/solatis/tpaconsole/internal/core/db"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Issue and revoke console API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key signed by a configured HMAC secret",
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		database, err := db.Open(ctx, databaseURL())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		queries, err := db.LoadQueries(database)
		if err != nil {
			return err
		}
		if err := auth.RevokeKey(ctx, queries, args[0]); err != nil {
			return err
		}
		logger.Info().Str("api_key_id", args[0]).Msg("api key revoked")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd)
	keysCreateCmd.Flags().String("client", "", "client id the key authenticates as (required)")
	keysCreateCmd.Flags().String("name", "", "human-readable key name")
	keysCreateCmd.Flags().String("secret-id", "", "HMAC secret id to sign with (defaults to the only configured secret)")
	_ = keysCreateCmd.MarkFlagRequired("client")
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	}

	secretID, _ := cmd.Flags().GetString("secret-id")
	if secretID == "" {
		if len(secrets) > 1 {
			return fmt.Errorf("%d HMAC secrets configured, choose one with --secret-id", len(secrets))
		}
		for id := range secrets {
			secretID = id
		}
	}
	secret, ok := secrets[secretID]
	if !ok {
		return fmt.Errorf("unknown --secret-id %s", secretID)
	}

	database, err := db.Open(ctx, databaseURL())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()
	queries, err := db.LoadQueries(database)
	if err != nil {
		return err
	}

	clientID, _ := cmd.Flags().GetString("client")
	name, _ := cmd.Flags().GetString("name")
	issued, err := auth.IssueKey(ctx, queries, secretID, secret, clientID, name)
	if err != nil {
		return err
	}

	logger.Info().Str("api_key_id", issued.ID).Str("client_id", issued.ClientID).Msg("api key issued")
	// Shown once; only the HMAC is stored
	fmt.Fprintf(cmd.OutOrStdout(), "id:  %s\nkey: %s\n", issued.ID, issued.Key)
	return nil
}
