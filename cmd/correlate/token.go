package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	jwtmw "github.com/ZyrticX/DELTA-MIX/internal/platform/jwt"
	infraredis "github.com/ZyrticX/DELTA-MIX/internal/platform/redis"
	"github.com/ZyrticX/DELTA-MIX/internal/platform/session"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue and revoke API tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue SUBJECT",
	Short: "Print a signed API token for SUBJECT",
	Long: `Signs a token with JWT_SECRET. When Redis is reachable the token is recorded so
that it can be revoked later.

Example:
  correlate token issue dashboard --ttl 720h`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenIssue,
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke one token by --id or every token of --subject",
	RunE:  runTokenRevoke,
}

var (
	tokenTTL      time.Duration
	revokeID      string
	revokeSubject string
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd, tokenRevokeCmd)

	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default jwt.expiry)")
	tokenRevokeCmd.Flags().StringVar(&revokeID, "id", "", "Token ID (jti)")
	tokenRevokeCmd.Flags().StringVar(&revokeSubject, "subject", "", "Revoke every token of this subject")
	tokenRevokeCmd.MarkFlagsOneRequired("id", "subject")
	tokenRevokeCmd.MarkFlagsMutuallyExclusive("id", "subject")
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.JWT.Expiry
	}
	tok, err := jwtmw.NewGenerator(cfg.JWT.Secret, ttl).Issue(args[0])
	if err != nil {
		return err
	}

	rdb, err := infraredis.NewRedisClient(cmd.Context(), cfg.Redis)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: Redis unavailable, token is not recorded and cannot be revoked")
	} else {
		defer rdb.Close()
		if err := recordToken(cmd.Context(), rdb, tok); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id: %s\nexpires: %s\ntoken: %s\n", tok.ID, tok.ExpiresAt.UTC().Format(time.RFC3339), tok.Value)
	return nil
}

func recordToken(ctx context.Context, rdb *redis.Client, tok jwtmw.Token) error {
	store := session.NewTokenStore(rdb, "token")
	return store.Record(ctx, session.TokenRecord{
		ID:        tok.ID,
		Subject:   tok.Subject,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: tok.ExpiresAt,
	})
}

func runTokenRevoke(cmd *cobra.Command, args []string) error {
	rdb, err := infraredis.NewRedisClient(cmd.Context(), cfg.Redis)
	if err != nil {
		return fmt.Errorf("revocation needs Redis: %w", err)
	}
	defer rdb.Close()
	store := session.NewTokenStore(rdb, "token")

	if revokeID != "" {
		if err := store.Revoke(cmd.Context(), revokeID); err != nil {
			return fmt.Errorf("revoke %s: %w", revokeID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", revokeID)
		return nil
	}
	n, err := store.RevokeAllBySubject(cmd.Context(), revokeSubject)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %d tokens of %s\n", n, revokeSubject)
	return nil
}
