package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RowanDark/cipherbreak/internal/api"
	"github.com/RowanDark/cipherbreak/internal/mcpserver"
)

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the decoders as MCP tools over stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout exposing one tool
per cipher kind plus cipher_type_identifier. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.Info("starting MCP server over stdio")
			return mcpserver.NewServer(a.svc, version, a.logger.WithComponent("mcp")).Run(cmd.Context())
		},
	}
}

func (a *app) tokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the cipherd API",
		Long:  "Mint an HS256 token signed with server.jwt_secret for the REST and gRPC listeners.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret is not configured")
			}
			auth, err := api.NewAuthenticator([]byte(a.cfg.Server.JWTSecret), a.cfg.Server.JWTIssuer, ttl)
			if err != nil {
				return err
			}
			token, expires, err := auth.Mint(subject, ttl)
			if err != nil {
				return err
			}
			out := map[string]string{"token": token, "expires_at": expires.Format(time.RFC3339)}
			return a.emit(out, func() error {
				_, err := fmt.Fprintln(a.stdout, token)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cipherctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime (capped at 24h)")
	return cmd
}
