// Command sqlrun executes a report template against an LMS database and prints CSV.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"report_bridge/internal/config"
	"report_bridge/internal/di"
	"report_bridge/internal/domain/query"
	"report_bridge/internal/infrastructure/template"
	"report_bridge/internal/usecase"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "sqlrun:", err)
		os.Exit(1)
	}
}

type options struct {
	store    config.Store
	prefix   string
	limit    int
	params   []string
	file     string
	sql      string
	strict   bool
	single   bool
	timeout  time.Duration
	logLevel string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("sqlrun", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.store.Driver, "driver", "mysql", "Store driver: mysql|postgres|pgx|sqlite3")
	fs.StringVar(&opts.store.DSN, "dsn", "", "Store DSN")
	fs.BoolVar(&opts.store.ReadOnly, "read-only", true, "Run the query in a read-only transaction")
	fs.StringVar(&opts.prefix, "prefix", "mdl_", "Table prefix replacing mdl_ and prefix_")
	fs.IntVar(&opts.limit, "limit", query.DefaultLimitCap, "Maximum number of rows")
	fs.StringArrayVar(&opts.params, "param", nil, "Template parameter name=value (repeatable)")
	fs.StringVarP(&opts.file, "file", "f", "", `Template file ("-" for stdin)`)
	fs.StringVar(&opts.sql, "sql", "", "Template text")
	fs.BoolVar(&opts.strict, "strict", false, "Fail on placeholders without a value")
	fs.BoolVar(&opts.single, "single-statement", false, "Reject templates with several statements")
	fs.DurationVar(&opts.timeout, "timeout", time.Minute, "Query timeout")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.store.DSN == "" {
		return options{}, errors.New("--dsn is required")
	}
	if (opts.file == "") == (opts.sql == "") {
		return options{}, errors.New("exactly one of --file or --sql is required")
	}
	opts.store.MaxOpenConns = 1
	opts.store.ConnectTimeout = 10 * time.Second
	return opts, nil
}

// parseParams turns name=value pairs into template parameters.
func parseParams(pairs []string) (query.Params, error) {
	params := make(query.Params, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q, want name=value", p)
		}
		params[name] = value
	}
	return params, nil
}

func readTemplate(opts options, stdin io.Reader) (string, error) {
	if opts.sql != "" {
		return opts.sql, nil
	}
	if opts.file == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	tmpl, err := readTemplate(opts, stdin)
	if err != nil {
		return err
	}

	logger := di.NewLogger(config.Config{Logging: config.Logging{Level: opts.logLevel}})
	logger.SetOutput(stderr)

	store, err := di.OpenStore(opts.store)
	if err != nil {
		return err
	}
	defer store.Close()

	missing := query.MissingPermissive
	if opts.strict {
		missing = query.MissingStrict
	}
	executor := usecase.NewTemplateExecutor(store, usecase.ExecutorConfig{
		TablePrefix:     opts.prefix,
		Missing:         missing,
		SingleStatement: opts.single,
	}, logger)

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	res, err := executor.Execute(ctx, tmpl, params, opts.limit)
	if err != nil {
		return err
	}
	logger.WithField("rows", len(res.Rows)).Debug("Query executed")

	return template.NewCSV().Export(stdout, "", res)
}

