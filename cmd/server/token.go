package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"stamind.app/journal-service/internal/auth"
	"stamind.app/journal-service/internal/config"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development JWT",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "Subject of the token (random uuid when empty)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}

	userID := tokenUser
	if userID == "" {
		userID = uuid.NewString()
	}

	token, err := auth.GenerateJWT(secret, userID, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
