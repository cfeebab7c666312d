package main

import (
	"github.com/spf13/cobra"

	"github.com/StricklySoft/authn-core/pkg/auth"
)

func newDecodeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token|->",
		Short: "Print a token's claims without verifying it",
		Long: "decode prints the claims of a token without checking its signature. " +
			"The output is untrusted and only useful for debugging.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := opts.readToken(args)
			if err != nil {
				return err
			}
			claims, err := auth.NewTokenCodec().UnverifiedDecode(token)
			if err != nil {
				return err
			}
			return opts.printJSON(claims)
		},
	}
}
