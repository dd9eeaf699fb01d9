// Package main provides the CLI entrypoint for keystyleid.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/emrekiracbedel/keystyleid/internal/capture"
	"github.com/emrekiracbedel/keystyleid/internal/config"
	"github.com/emrekiracbedel/keystyleid/internal/model"
	"github.com/emrekiracbedel/keystyleid/internal/modelstore"
	"github.com/emrekiracbedel/keystyleid/internal/predictor"
	"github.com/emrekiracbedel/keystyleid/internal/report"
	"github.com/emrekiracbedel/keystyleid/internal/sessionio"
	"github.com/emrekiracbedel/keystyleid/internal/store"
	"github.com/emrekiracbedel/keystyleid/internal/trainer"
	"github.com/emrekiracbedel/keystyleid/internal/tui"
)

const (
	defaultPrompt        = "the quick brown fox jumps over the lazy dog"
	defaultMinSimilarity = 0.8
	defaultMinEvents     = 4
	defaultMinPerUser    = 10
	defaultTestFraction  = 0.2
	defaultTrees         = 100
	defaultSeed          = 42
)

var (
	collectUser          string
	collectPrompt        string
	collectMinSimilarity float64
	collectMinEvents     int

	trainMinPerUser   int
	trainTestFraction float64
	trainTrees        int
	trainSeed         int64

	predictEventsPath string
	predictText       string
	predictPrompt     string
	predictSimilarity float64
	predictMinEvents  int

	exportOutPath string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keystyleid",
		Short:         "Keystroke dynamics identification",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runCollectCmd,
	}

	rootCmd.Flags().StringVar(&collectUser, "user", "", "user label to collect sessions for (required)")
	rootCmd.Flags().StringVar(&collectPrompt, "prompt", defaultPrompt, "prompt text to type")
	rootCmd.Flags().Float64Var(&collectMinSimilarity, "min-similarity", defaultMinSimilarity, "minimum transcript similarity (0-1)")
	rootCmd.Flags().IntVar(&collectMinEvents, "min-events", defaultMinEvents, "minimum key events per session")

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadCaptureConfig(cmd *cobra.Command, prompt *string, minSimilarity *float64, minEvents *int) (model.CaptureConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.CaptureConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "prompt", prompt, fileCfg.Capture.Prompt)
	applyFloatConfig(cmd, "min-similarity", minSimilarity, fileCfg.Capture.MinSimilarity)
	applyIntConfig(cmd, "min-events", minEvents, fileCfg.Capture.MinEvents)

	cfg := model.CaptureConfig{
		Prompt:        *prompt,
		MinSimilarity: *minSimilarity,
		MinEvents:     *minEvents,
	}
	if err := validateCaptureConfig(cfg); err != nil {
		return model.CaptureConfig{}, err
	}
	return cfg, nil
}

func runCollectCmd(cmd *cobra.Command, _ []string) error {
	user := strings.TrimSpace(collectUser)
	if user == "" {
		return fmt.Errorf("--user is required")
	}

	cfg, err := loadCaptureConfig(cmd, &collectPrompt, &collectMinSimilarity, &collectMinEvents)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	m := tui.NewCollectModel(cfg, user, st)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the identification model from stored sessions",
		Args:  cobra.NoArgs,
		RunE:  runTrainCmd,
	}
	cmd.Flags().IntVar(&trainMinPerUser, "min-per-user", defaultMinPerUser, "minimum sessions required per user")
	cmd.Flags().Float64Var(&trainTestFraction, "test-fraction", defaultTestFraction, "held-out fraction for accuracy (0-1)")
	cmd.Flags().IntVar(&trainTrees, "trees", defaultTrees, "number of trees in the forest")
	cmd.Flags().Int64Var(&trainSeed, "seed", defaultSeed, "random seed for training")
	return cmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "min-per-user", &trainMinPerUser, fileCfg.Train.MinPerUser)
	applyFloatConfig(cmd, "test-fraction", &trainTestFraction, fileCfg.Train.TestFraction)
	applyIntConfig(cmd, "trees", &trainTrees, fileCfg.Train.Trees)
	applyInt64Config(cmd, "seed", &trainSeed, fileCfg.Train.Seed)

	cfg := model.TrainConfig{
		MinPerUser:   trainMinPerUser,
		TestFraction: trainTestFraction,
		Trees:        trainTrees,
		Seed:         trainSeed,
	}
	if err := validateTrainConfig(cfg); err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	ms := modelstore.New(config.DefaultArtifactsDir())

	rep, err := trainer.Train(context.Background(), st, ms, cfg)
	if err != nil {
		var insufficient *trainer.InsufficientSamplesError
		if errors.As(err, &insufficient) {
			logErrf("Each user needs at least %d sessions. Current counts:\n", insufficient.MinPerUser)
			if rerr := report.RenderUserCounts(os.Stderr, insufficient.Counts); rerr != nil {
				logErrf("failed to render counts: %v\n", rerr)
			}
		}
		return err
	}
	if err := report.RenderTrainReport(cmd.OutOrStdout(), rep); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Identify the typist",
		Args:  cobra.NoArgs,
		RunE:  runPredictCmd,
	}
	cmd.Flags().StringVar(&predictEventsPath, "events", "", "JSON file of key events; omit to capture interactively")
	cmd.Flags().StringVar(&predictText, "text", "", "typed transcript to validate against the prompt")
	cmd.Flags().StringVar(&predictPrompt, "prompt", defaultPrompt, "prompt text to type")
	cmd.Flags().Float64Var(&predictSimilarity, "min-similarity", defaultMinSimilarity, "minimum transcript similarity (0-1)")
	cmd.Flags().IntVar(&predictMinEvents, "min-events", defaultMinEvents, "minimum key events per capture")
	return cmd
}

func runPredictCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCaptureConfig(cmd, &predictPrompt, &predictSimilarity, &predictMinEvents)
	if err != nil {
		return err
	}
	ms := modelstore.New(config.DefaultArtifactsDir())

	if predictEventsPath == "" {
		m := tui.NewPredictModel(cfg, ms)
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	}

	events, err := sessionio.ReadEvents(predictEventsPath)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	if cmd.Flags().Changed("text") {
		if err := capture.Validate(predictText, events, cfg); err != nil {
			return err
		}
	} else if len(events) < cfg.MinEvents {
		return capture.ErrTooFewEvents
	}

	prediction, err := predictor.Predict(events, ms)
	if err != nil {
		if errors.Is(err, modelstore.ErrModelNotFound) {
			return fmt.Errorf("no trained model found; run: keystyleid train")
		}
		return err
	}
	width := report.TerminalWidth(os.Stdout)
	if err := report.RenderPrediction(cmd.OutOrStdout(), prediction, width); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "Show stored session counts per user",
		Args:  cobra.NoArgs,
		RunE:  runSessionsCmd,
	}
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	counts, err := st.CountByUser(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}
	if len(counts) == 0 {
		logErrln("No sessions recorded yet. Collect with: keystyleid --user <label>")
		return nil
	}
	if err := report.RenderUserCounts(cmd.OutOrStdout(), counts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored sessions to a JSON file",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOutPath, "out", "sessions.json", "output file path")
	return cmd
}

func runExportCmd(_ *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	sessions, err := st.ListSessions(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions to export")
	}
	if err := sessionio.ExportSessions(exportOutPath, sessions); err != nil {
		return fmt.Errorf("failed to export sessions: %w", err)
	}
	logErrf("Exported %d session(s) to %s\n", len(sessions), exportOutPath)
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import sessions from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(_ *cobra.Command, args []string) error {
	sessions, err := sessionio.ImportSessions(args[0])
	if err != nil {
		return fmt.Errorf("failed to import sessions: %w", err)
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions in %s", args[0])
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	for _, session := range sessions {
		if _, err := st.InsertSession(context.Background(), session); err != nil {
			return fmt.Errorf("failed to save session for %s: %w", session.UserLabel, err)
		}
	}
	logErrf("Imported %d session(s)\n", len(sessions))
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
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
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

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keystyleid configuration
# Uncomment a value to enable it. CLI flags override config values.

[capture]
# prompt = %q
# min-similarity = %.2f   # Minimum transcript similarity (0-1)
# min-events = %d         # Minimum key events per session

[train]
# min-per-user = %d       # Minimum sessions required per user
# test-fraction = %.2f    # Held-out fraction for accuracy (0-1)
# trees = %d              # Number of trees in the forest
# seed = %d               # Random seed for training
`,
		defaultPrompt,
		defaultMinSimilarity,
		defaultMinEvents,
		defaultMinPerUser,
		defaultTestFraction,
		defaultTrees,
		defaultSeed,
	)
}

func validateCaptureConfig(cfg model.CaptureConfig) error {
	if strings.TrimSpace(cfg.Prompt) == "" {
		return fmt.Errorf("--prompt must not be empty")
	}
	if cfg.MinSimilarity < 0 || cfg.MinSimilarity > 1 {
		return fmt.Errorf("--min-similarity must be between 0 and 1")
	}
	if cfg.MinEvents < 0 {
		return fmt.Errorf("--min-events must be >= 0")
	}
	return nil
}

func validateTrainConfig(cfg model.TrainConfig) error {
	if cfg.MinPerUser < 1 {
		return fmt.Errorf("--min-per-user must be >= 1")
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		return fmt.Errorf("--test-fraction must be between 0 and 1")
	}
	if cfg.Trees < 1 {
		return fmt.Errorf("--trees must be >= 1")
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
