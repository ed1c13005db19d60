// Package main provides the CLI entrypoint for concerto.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/chart"
	"github.com/verte-zerg/concerto/internal/config"
	"github.com/verte-zerg/concerto/internal/coverage"
	"github.com/verte-zerg/concerto/internal/dashboard"
	"github.com/verte-zerg/concerto/internal/logging"
	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/ratings"
	"github.com/verte-zerg/concerto/internal/session"
	"github.com/verte-zerg/concerto/internal/store"
	"github.com/verte-zerg/concerto/internal/web"
)

const defaultSessionIdle = 12 * time.Hour

var (
	rootConfigPath string
	rootCatalog    string
	rootDataDir    string
	rootLogLevel   string

	serveAddr string
	serveIdle time.Duration

	coverageUser  string
	coverageColor bool

	registerEmail string
	registerName  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "concerto",
		Short:         "Rate concert programs and see which series fits you",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", config.DefaultConfigPath(), "config file path")
	flags.StringVar(&rootCatalog, "catalog", "", "catalog dataset (parquet, csv or json)")
	flags.StringVar(&rootDataDir, "data-dir", "", "directory holding the user store and rating files")
	flags.StringVar(&rootLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCoverageCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newUsersCmd())

	return rootCmd
}

// loadConfig merges the config file with the root flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(rootConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "catalog", &cfg.Catalog.Path, rootCatalog)
	applyStringFlag(cmd, "log-level", &cfg.Log.Level, rootLogLevel)
	if cmd.Flags().Changed("data-dir") {
		cfg.Storage.DB = filepath.Join(rootDataDir, "concerto.db")
		cfg.Storage.RatingsDir = filepath.Join(rootDataDir, "ratings")
	}
	return cfg, nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func coverageWeights(c config.CoverageConfig) coverage.Weights {
	return coverage.Weights{Level3: c.Weight3, Level2: c.Weight2, Level1: c.Weight1}
}

// openDeps loads the catalog and opens the stores. The returned close func
// releases the user store.
func openDeps(ctx context.Context, cfg config.Config) (session.Deps, func(), error) {
	cat, err := catalog.Load(ctx, cfg.Catalog.Path, cfg.Catalog.Columns.Catalog())
	if err != nil {
		return session.Deps{}, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	st, err := store.Open(cfg.Storage.DB)
	if err != nil {
		return session.Deps{}, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	deps := session.Deps{
		Users:   st,
		Ratings: ratings.NewFiles(cfg.Storage.RatingsDir),
		Catalog: cat,
		Weights: coverageWeights(cfg.Coverage),
	}
	return deps, closeFn, nil
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}()
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logFile})

	ctx := cmd.Context()
	deps, closeDeps, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	logging.Info().Int("programs", deps.Catalog.ProgramCount()).Str("catalog", cfg.Catalog.Path).Msg("dashboard started")
	program := tea.NewProgram(dashboard.NewModel(ctx, session.New(deps)), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := rootConfigPath
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := writeFileAtomic(path, []byte(config.Template())); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	cmd.Flags().DurationVar(&serveIdle, "session-idle", defaultSessionIdle, "drop browser sessions idle this long (0 keeps them)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringFlag(cmd, "addr", &cfg.Serve.Addr, serveAddr)
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	srv, err := web.New(deps, web.Options{
		Addr:            cfg.Serve.Addr,
		LoginRateLimit:  cfg.Serve.LoginRateLimit,
		LoginRateWindow: cfg.Serve.LoginRateWindow,
		SessionIdle:     serveIdle,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

func newCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Print series coverage for a user's saved ratings",
		Args:  cobra.NoArgs,
		RunE:  runCoverageCmd,
	}
	cmd.Flags().StringVar(&coverageUser, "user", "", "email of the user whose ratings are scored")
	cmd.Flags().BoolVar(&coverageColor, "color", false, "force colored bars")
	if err := cmd.MarkFlagRequired("user"); err != nil {
		logErrf("failed to mark --user required: %v\n", err)
	}
	return cmd
}

func runCoverageCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()
	cat, err := catalog.Load(ctx, cfg.Catalog.Path, cfg.Catalog.Columns.Catalog())
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	saved := model.RatingMap{}
	n, err := ratings.NewFiles(cfg.Storage.RatingsDir).Load(ctx, coverageUser, saved)
	if err != nil {
		return fmt.Errorf("failed to load ratings for %s: %w", coverageUser, err)
	}

	out := cmd.OutOrStdout()
	report := coverage.ScoreWeighted(cat, saved, coverageWeights(cfg.Coverage))
	if _, err := fmt.Fprintf(out, "%d ratings for %s\n\n", n, coverageUser); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !report.Empty() {
		if err := writeLines(out, chart.CoverageTable(report)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return chart.RenderCoverage(out, report, 0, coverageColor)
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Show catalog counts and filter values",
		Args:  cobra.NoArgs,
		RunE:  runCatalogCmd,
	}
}

func runCatalogCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	cat, err := catalog.Load(context.Background(), cfg.Catalog.Path, cfg.Catalog.Columns.Catalog())
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	months := make([]string, 0, len(cat.Months()))
	for _, month := range cat.Months() {
		months = append(months, model.MonthLabel(month))
	}
	lines := []string{
		fmt.Sprintf("Catalog:   %s", cfg.Catalog.Path),
		fmt.Sprintf("Rows:      %d", cat.Len()),
		fmt.Sprintf("Programs:  %d", cat.ProgramCount()),
		fmt.Sprintf("Works:     %d", catalog.CountWorks(cat.Rows())),
		fmt.Sprintf("Months:    %s", strings.Join(months, ", ")),
		fmt.Sprintf("Weekdays:  %s", strings.Join(cat.Weekdays(), ", ")),
		fmt.Sprintf("Series:    %s", strings.Join(cat.Series(), ", ")),
		fmt.Sprintf("Composers: %d", len(cat.Composers())),
	}
	return writeLines(cmd.OutOrStdout(), lines)
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE:  runRegisterCmd,
	}
	cmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	cmd.Flags().StringVar(&registerName, "name", "", "display name")
	return cmd
}

func runRegisterCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	st, err := store.Open(cfg.Storage.DB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	in := bufio.NewReader(os.Stdin)
	password, err := readPassword(in, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(in, "Confirm:  ")
	if err != nil {
		return err
	}

	s := session.New(session.Deps{Users: st})
	if err := s.Register(context.Background(), registerEmail, registerName, password, confirm); err != nil {
		return err
	}
	logErrf("Created account %s\n", store.NormalizeEmail(registerEmail))
	return nil
}

// readPassword prompts on stderr and reads without echo when stdin is a terminal.
func readPassword(in *bufio.Reader, prompt string) (string, error) {
	logErrf("%s", prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		logErrln()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE:  runUsersCmd,
	}
}

func runUsersCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Storage.DB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	users, err := st.ListUsers(context.Background())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		logErrln("No users yet. Create one with: concerto register --email <email> --name <name>")
		return nil
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Email, u.Name})
	}
	return writeLines(cmd.OutOrStdout(), chart.FormatTable([]string{"Email", "Name"}, rows, nil))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
