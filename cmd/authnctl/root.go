package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envPrefix  string
	logLevel   string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "authnctl",
		Short:         "Inspect and verify bearer tokens",
		Long:          "authnctl decodes tokens and runs them through the authn-core verifier against a live identity service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "authn.yaml", "Configuration file (.yaml, .yml or .json); missing is not an error")
	root.PersistentFlags().StringVar(&opts.envPrefix, "env-prefix", "AUTHN", "Prefix of configuration environment variables")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(newDecodeCommand(opts), newVerifyCommand(opts))
	return root
}

// logger writes JSON logs to stderr so stdout stays machine-readable.
func (o *globalOptions) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("authnctl: invalid --log-level %q", o.logLevel)
	}
	return slog.New(slog.NewJSONHandler(o.stderr, &slog.HandlerOptions{Level: level})), nil
}

// readToken returns args[0], or a line of stdin when it is "-".
func (o *globalOptions) readToken(args []string) (string, error) {
	token := args[0]
	if token == "-" {
		line, err := bufio.NewReader(o.stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("authnctl: read token from stdin: %w", err)
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("authnctl: token is empty")
	}
	return token, nil
}

func (o *globalOptions) printJSON(v any) error {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
