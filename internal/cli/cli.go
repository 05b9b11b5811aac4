// Package cli implements the gqlbridge command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	resilientgraphql "github.com/opengovern/resilient-graphql"
	"github.com/opengovern/resilient-graphql/adapters"
	"github.com/opengovern/resilient-graphql/auth"
	"github.com/opengovern/resilient-graphql/checkpoint"
	"github.com/opengovern/resilient-graphql/internal"
)

const appName = "gqlbridge"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	out    io.Writer

	configPath string
	endpoint   string
	tokenEnv   string
	debug      bool
}

// New creates a CLI printing results to out and logs to errOut.
func New(out, errOut io.Writer) *CLI {
	return &CLI{
		out: out,
		Logger: log.NewWithOptions(errOut, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Prefix:          appName,
		}),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "gqlbridge runs GraphQL queries with retries, throttle handling and pagination",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.debug {
				c.Logger.SetLevel(log.DebugLevel)
			}
			if err := godotenv.Load(); err != nil {
				c.Logger.Debug("no .env file loaded", "err", err)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML config file")
	flags.BoolVar(&c.debug, "debug", false, "enable debug logging")
	flags.StringVar(&c.endpoint, "endpoint", "", "GraphQL endpoint (overrides the config file)")
	flags.StringVar(&c.tokenEnv, "token-env", "", "environment variable holding the access token")

	root.AddCommand(c.queryCommand())
	root.AddCommand(c.paginateCommand())

	return root
}

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) error {
	return New(os.Stdout, os.Stderr).RootCommand().ExecuteContext(ctx)
}

// fileConfig returns the parsed --config file, or an empty one.
func (c *CLI) fileConfig() (*resilientgraphql.FileConfig, error) {
	if c.configPath == "" {
		return &resilientgraphql.FileConfig{}, nil
	}
	return resilientgraphql.LoadFileConfig(c.configPath)
}

// newClient builds a client from the config file and global flags.
func (c *CLI) newClient(fc *resilientgraphql.FileConfig) (*resilientgraphql.Client, error) {
	endpoint := fc.Endpoint
	if c.endpoint != "" {
		endpoint = c.endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no endpoint: pass --endpoint or set endpoint in the config file")
	}

	tokenEnv := fc.TokenEnv
	if c.tokenEnv != "" {
		tokenEnv = c.tokenEnv
	}
	var ts oauth2.TokenSource
	if tokenEnv != "" {
		var err error
		if ts, err = auth.TokenFromEnv(tokenEnv); err != nil {
			return nil, err
		}
	}

	cfg, err := fc.ClientConfig(ts)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	client, err := resilientgraphql.NewClient(endpoint, adapters.NewHTTPTransport(adapters.HTTPOptions{}), cfg)
	if err != nil {
		return nil, err
	}
	client.SetLogger(c.Logger)
	client.SetDebug(c.debug)
	c.Logger.Debug("client ready", "endpoint", endpoint, "max_attempts", cfg.MaxAttempts, "rules", len(cfg.RetryRules))
	return client, nil
}

// cursorStore opens the checkpoint store named in the config file. It returns
// nil when checkpointing is not configured.
func (c *CLI) cursorStore(ctx context.Context, fc *resilientgraphql.FileConfig) (resilientgraphql.CursorStore, func(), error) {
	noop := func() {}
	cp := fc.Checkpoint
	switch strings.ToLower(cp.Type) {
	case "":
		return nil, noop, nil
	case "memory":
		return checkpoint.NewMemoryStore(), noop, nil
	case "file":
		store, err := checkpoint.NewFileStore(cp.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "redis":
		ttl, err := internal.ParseDuration(cp.TTL)
		if err != nil {
			return nil, noop, fmt.Errorf("checkpoint.ttl: %w", err)
		}
		store, err := checkpoint.DialRedisStore(ctx, cp.RedisAddr, cp.Prefix, ttl)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				c.Logger.Warn("closing redis checkpoint store", "err", err)
			}
		}, nil
	}
	return nil, noop, fmt.Errorf("unknown checkpoint type %q", cp.Type)
}

// readQuery loads the query text and decodes the --vars JSON object.
func readQuery(path, rawVars string) (string, map[string]any, error) {
	if path == "" {
		return "", nil, fmt.Errorf("--query-file is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read query: %w", err)
	}
	var vars map[string]any
	if rawVars != "" {
		if err := json.Unmarshal([]byte(rawVars), &vars); err != nil {
			return "", nil, fmt.Errorf("parse --vars: %w", err)
		}
	}
	return string(b), vars, nil
}
