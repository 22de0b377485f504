package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/coven/internal/auth"
)

var (
	tokenUser string
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.RequireSecret(); err != nil {
			return err
		}
		ttl := cfg.TokenTTL
		if cmd.Flags().Changed("ttl") {
			ttl = tokenTTL
		}

		token, err := auth.NewJWTManager(cfg.JWTSecret, ttl).Generate(tokenUser, tokenName)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User ID the token identifies.")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name shown in guest lists.")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime (overrides TOKEN_TTL).")
	tokenCmd.MarkFlagRequired("user")
}
