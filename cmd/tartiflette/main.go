package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alexchamberlain/tartiflette/internal/engine"
	"github.com/alexchamberlain/tartiflette/internal/eventbus"
	"github.com/alexchamberlain/tartiflette/internal/otel"
	"github.com/alexchamberlain/tartiflette/internal/schema"
	"github.com/alexchamberlain/tartiflette/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags bound to the returned viper
// instance can also be set through TARTIFLETTE_* environment variables,
// e.g. TARTIFLETTE_ADDR or TARTIFLETTE_SCHEMA.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("tartiflette")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "tartiflette",
		Short:        "GraphQL engine driven by SDL",
		SilenceUsage: true,
	}
	fs := root.PersistentFlags()
	fs.StringSlice("schema", []string{"."}, "SDL file or directory; repeatable")
	fs.Bool("introspection", true, "Expose __schema and __type")
	fs.Bool("debug", false, "Development logging")
	bindFlags(v, fs, "schema", "introspection", "debug")

	root.AddCommand(newServeCmd(v), newExecCmd(v), newRenderCmd(v))
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = v.BindPFlag(name, fs.Lookup(name))
	}
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	if v.GetBool("debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildEngine(v *viper.Viper, logger *zap.Logger, opts ...engine.Option) (*engine.Engine, error) {
	sources, err := engine.LoadSources(v.GetStringSlice("schema")...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	opts = append([]engine.Option{engine.WithLogger(logger)}, opts...)
	if !v.GetBool("introspection") {
		opts = append(opts, engine.WithoutIntrospection())
	}
	return engine.New(sources, opts...)
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schema over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(v)
		},
	}
	fs := cmd.Flags()
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("path", "/graphql", "Endpoint path")
	fs.Bool("pretty", false, "Pretty-print JSON responses")
	fs.Duration("timeout", 10*time.Second, "Per-request timeout")
	fs.Int64("max-body-bytes", 1<<20, "Request body limit; 0 disables it")
	fs.StringSlice("cors-origin", nil, "Allowed CORS origin; repeatable")
	fs.StringSlice("metadata-header", nil, "Forward HTTP header to gRPC metadata; repeatable")
	fs.Bool("graphiql", true, "Serve GraphiQL to browsers")
	fs.Int("cache-size", 512, "Parsed query cache size")
	fs.String("otel-endpoint", "", "OTLP collector endpoint")
	fs.String("otel-service", "tartiflette", "OpenTelemetry service name")
	bindFlags(v, fs, "addr", "path", "pretty", "timeout", "max-body-bytes", "cors-origin",
		"metadata-header", "graphiql", "cache-size", "otel-endpoint", "otel-service")
	return cmd
}

func runServe(v *viper.Viper) error {
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	shutdownTracing, err := otel.Setup(v.GetString("otel-endpoint"), v.GetString("otel-service"))
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	e, err := buildEngine(v, logger, engine.WithCacheSize(v.GetInt("cache-size")))
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithTimeout(v.GetDuration("timeout")),
		server.WithMaxBodyBytes(v.GetInt64("max-body-bytes")),
		server.WithGraphiQL(v.GetBool("graphiql")),
	}
	if v.GetBool("pretty") {
		opts = append(opts, server.WithPretty())
	}
	if origins := v.GetStringSlice("cors-origin"); len(origins) > 0 {
		opts = append(opts, server.WithCORS(origins...))
	}
	if headers := v.GetStringSlice("metadata-header"); len(headers) > 0 {
		opts = append(opts, server.WithMetadataHeaders(headers...))
	}

	mux := http.NewServeMux()
	mux.Handle(v.GetString("path"), server.New(e, opts...))
	srv := &http.Server{Addr: v.GetString("addr"), Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening", zap.String("addr", srv.Addr), zap.String("path", v.GetString("path")))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newExecCmd(v *viper.Viper) *cobra.Command {
	var (
		file, operation, variables, root string
	)
	cmd := &cobra.Command{
		Use:   "exec [query]",
		Short: "Execute one operation and print the JSON result",
		Long: `Execute one operation against the schema. Fields without a resolver
read from the root value, so --root provides the data.`,
		Example: `tartiflette exec --schema schema.graphql --root '{"hello":"world"}' '{ hello }'`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(args, file, os.Stdin)
			if err != nil {
				return err
			}
			req := engine.Request{Query: query, OperationName: operation}
			if variables != "" {
				if err := json.Unmarshal([]byte(variables), &req.Variables); err != nil {
					return fmt.Errorf("invalid --variables: %w", err)
				}
			}
			if root != "" {
				if err := json.Unmarshal([]byte(root), &req.RootValue); err != nil {
					return fmt.Errorf("invalid --root: %w", err)
				}
			}

			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			e, err := buildEngine(v, logger)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(e.Execute(context.Background(), req))
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&file, "file", "f", "", "Read the query from a file; - reads stdin")
	fs.StringVarP(&operation, "operation-name", "o", "", "Operation to execute")
	fs.StringVar(&variables, "variables", "", "Variables as a JSON object")
	fs.StringVar(&root, "root", "", "Root value as JSON")
	return cmd
}

func readQuery(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", errors.New("give the query either as an argument or with --file")
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read query: %w", err)
		}
		return string(b), nil
	}
	return "", errors.New("missing query")
}

func newRenderCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the merged schema as SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			e, err := buildEngine(v, logger, engine.WithoutIntrospection())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), schema.Render(e.Schema()))
			return err
		},
	}
}
