package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/ops"
	"github.com/hpungsan/spamguard/internal/quarantine"
	"github.com/hpungsan/spamguard/internal/web"
)

// newCLIApp creates the CLI application with all commands.
// m may be nil when metrics are disabled.
func newCLIApp(db *sql.DB, cfg *config.Config, m *metrics.Collector) *cli.App {
	app := &cli.App{
		Name:    "spamguard",
		Usage:   "Score names for human-likeness and quarantine suspicious signups",
		Version: Version,
		Commands: []*cli.Command{
			analyzeCmd(cfg, m),
			screenCmd(db, cfg, m),
			quarantineCmd(db, m),
			fetchCmd(db),
			checkCmd(db),
			liftCmd(db, m),
			listCmd(db),
			statsCmd(db),
			exportCmd(db, cfg),
			serveCmd(db, cfg, m),
		},
		// "first_name=Jean, Pierre" must stay one value
		DisableSliceFlagSeparator: true,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// analyzeCmd scores one or more strings. With no arguments, newline-separated
// strings are read from stdin.
func analyzeCmd(cfg *config.Config, m *metrics.Collector) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Score strings for human-likeness (arguments, or one per line on stdin)",
		ArgsUsage: "[text...]",
		Action: func(c *cli.Context) error {
			texts := c.Args().Slice()
			if len(texts) == 0 {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("at least one text is required"))
				}
				lines, err := readLines()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				texts = lines
			}

			if len(texts) == 1 {
				output, err := ops.Analyze(m, ops.AnalyzeInput{Text: texts[0]})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c, output)
			}

			output, err := ops.AnalyzeBatch(c.Context, cfg, m, ops.AnalyzeBatchInput{Texts: texts})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// screenCmd scores a signup and quarantines it when it falls below a threshold.
func screenCmd(db *sql.DB, cfg *config.Config, m *metrics.Collector) *cli.Command {
	return &cli.Command{
		Name:  "screen",
		Usage: "Screen a signup identity and quarantine it when suspicious",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
			&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Usage: "Free-text field as name=value (repeatable)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Score and decide without writing"},
		},
		Action: func(c *cli.Context) error {
			fields, err := parseFields(c.StringSlice("field"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			output, err := ops.Screen(c.Context, db, cfg, m, ops.ScreenInput{
				Email:  c.String("email"),
				Fields: fields,
				DryRun: c.Bool("dry-run"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// quarantineCmd records a quarantine by hand.
func quarantineCmd(db *sql.DB, m *metrics.Collector) *cli.Command {
	return &cli.Command{
		Name:  "quarantine",
		Usage: "Quarantine an identity explicitly",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Usage: "suspected|likely|proven", Required: true},
			&cli.StringSliceFlag{Name: "reason", Aliases: []string{"r"}, Usage: "Reason code (repeatable)"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Markdown note"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			level, err := parseLevel(c.String("level"))
			if err != nil {
				return outputError(err)
			}

			input := ops.QuarantineInput{
				Email:       c.String("email"),
				Level:       level,
				ReasonCodes: c.StringSlice("reason"),
				Mode:        ops.QuarantineMode(c.String("mode")),
			}
			if c.IsSet("note") {
				note := c.String("note")
				input.Note = &note
			}

			output, err := ops.Quarantine(c.Context, db, m, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a quarantine record by ID or email",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
			&cli.BoolFlag{Name: "include-lifted", Usage: "Include lifted records"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{
				ID:            c.Args().First(),
				Email:         c.String("email"),
				IncludeLifted: c.Bool("include-lifted"),
			}

			output, err := ops.Fetch(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// checkCmd answers whether an identity is currently quarantined.
func checkCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check whether an identity is quarantined",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
			&cli.StringSliceFlag{Name: "level", Aliases: []string{"l"}, Usage: "Only match these levels (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.CheckInput{Email: c.String("email")}
			for _, s := range c.StringSlice("level") {
				level, err := parseLevel(s)
				if err != nil {
					return outputError(err)
				}
				input.Levels = append(input.Levels, level)
			}

			output, err := ops.Check(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// liftCmd creates the lift command.
func liftCmd(db *sql.DB, m *metrics.Collector) *cli.Command {
	return &cli.Command{
		Name:      "lift",
		Usage:     "Lift an active quarantine",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Markdown note, replaces the current one"},
		},
		Action: func(c *cli.Context) error {
			input := ops.LiftInput{
				ID:    c.Args().First(),
				Email: c.String("email"),
			}
			if c.IsSet("note") {
				note := c.String("note")
				input.Note = &note
			}

			output, err := ops.Lift(c.Context, db, m, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List quarantine records, most recently updated first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Filter by email"},
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Usage: "Filter by level"},
			&cli.BoolFlag{Name: "include-lifted", Usage: "Include lifted records"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Maximum results (max 100)"},
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListInput{
				Email:         c.String("email"),
				IncludeLifted: c.Bool("include-lifted"),
				Limit:         c.Int("limit"),
				Offset:        c.Int("offset"),
			}
			if s := c.String("level"); s != "" {
				level, err := parseLevel(s)
				if err != nil {
					return outputError(err)
				}
				input.Level = level
			}

			output, err := ops.List(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Count active quarantines per level",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export quarantine records to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output file path (default: ~/.spamguard/exports/)"},
			&cli.BoolFlag{Name: "include-lifted", Usage: "Include lifted records"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				Path:          c.String("path"),
				IncludeLifted: c.Bool("include-lifted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// serveCmd starts the review UI and JSON API.
func serveCmd(db *sql.DB, cfg *config.Config, m *metrics.Collector) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the review UI, JSON API and /metrics over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}

			srv, err := web.NewServer(db, cfg, m, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON writes v to the app's writer (stdout by default) as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var gErr *errors.GuardError
	if stderrors.As(err, &gErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseLevel maps a level name to INVALID_REQUEST when unknown.
func parseLevel(s string) (quarantine.Level, error) {
	level, err := quarantine.ParseLevel(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(err.Error())
	}
	return level, nil
}

// parseFields turns name=value pairs into a field map. Values may contain '='.
func parseFields(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("field %q must be name=value", p)
		}
		if _, dup := fields[name]; dup {
			return nil, fmt.Errorf("field %q given more than once", name)
		}
		fields[name] = value
	}
	return fields, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readLines reads non-blank lines from stdin, trimming the line endings only.
func readLines() ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
