package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/StricklySoft/authn-core/internal/service"
	"github.com/StricklySoft/authn-core/pkg/auth"
	"github.com/StricklySoft/authn-core/pkg/config"
	sserr "github.com/StricklySoft/authn-core/pkg/errors"
)

// verifyResult is the JSON printed by a successful verify.
type verifyResult struct {
	TransactionID string              `json:"transaction_id"`
	Authorization *auth.Authorization `json:"authorization"`
	Metadata      map[string]any      `json:"metadata"`
}

func newVerifyCommand(opts *globalOptions) *cobra.Command {
	var domainID, workspaceID string

	cmd := &cobra.Command{
		Use:   "verify <token|->",
		Short: "Verify a token against the identity service",
		Long: "verify runs the full verification pipeline and prints the authorization " +
			"context. Configuration comes from --config and AUTHN_* environment variables.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := opts.readToken(args)
			if err != nil {
				return err
			}
			logger, err := opts.logger()
			if err != nil {
				return err
			}

			var cfg service.Config
			if err := config.New().WithEnvPrefix(opts.envPrefix).WithFile(opts.configPath).Load(&cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			svc, err := service.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			tokenKey := svc.Verifier.TokenMetaKey()
			meta := map[string]any{tokenKey: token}
			if domainID != "" {
				meta[auth.MetaDomainID] = domainID
			}
			if workspaceID != "" {
				meta[auth.MetaWorkspaceID] = workspaceID
			}
			tx := auth.NewTransaction(meta)

			authz, err := svc.Verifier.Verify(ctx, tx)
			if err != nil {
				return describe(err)
			}

			snapshot := tx.Snapshot()
			delete(snapshot, tokenKey)
			return opts.printJSON(verifyResult{
				TransactionID: tx.ID(),
				Authorization: authz,
				Metadata:      snapshot,
			})
		},
	}
	cmd.Flags().StringVar(&domainID, "domain-id", "", "x_domain_id for SYSTEM tokens")
	cmd.Flags().StringVar(&workspaceID, "workspace-id", "", "x_workspace_id for SYSTEM tokens")
	return cmd
}

// describe appends which dependency failed behind an authentication
// failure.
func describe(err error) error {
	switch {
	case sserr.IsKeyResolution(err):
		return fmt.Errorf("%w (domain public key could not be resolved)", err)
	case sserr.IsPermissionResolution(err):
		return fmt.Errorf("%w (app permissions could not be resolved)", err)
	default:
		return err
	}
}
