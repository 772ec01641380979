package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudsleuth/cloudsleuth/internal/awsclient"
	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
	"github.com/cloudsleuth/cloudsleuth/internal/diagnosis"
	"github.com/cloudsleuth/cloudsleuth/internal/logging"
	"github.com/cloudsleuth/cloudsleuth/internal/orchestrator"
	"github.com/cloudsleuth/cloudsleuth/internal/prompt"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
	"github.com/cloudsleuth/cloudsleuth/internal/tracing"
	"github.com/cloudsleuth/cloudsleuth/internal/tui"
)

const defaultConfigFile = "cloudsleuth.yaml"

var runCmd = &cobra.Command{
	Use:   "run [config-file]",
	Short: "Gather AWS diagnostic data and generate a diagnosis",
	Long: `Fetch the datasources declared in the configuration file over one
shared time window, assemble their output into a prompt and ask the
configured LLM provider for a diagnosis.

The window defaults to the last hour. Datasources that fail are
reported and skipped; the diagnosis uses whatever data was gathered.

Examples:
  # Diagnose the last hour using ./cloudsleuth.yaml
  cloudsleuth run

  # Diagnose the last 15 minutes
  cloudsleuth run prod.yaml --duration 900

  # Diagnose an explicit window in the configured time zone
  cloudsleuth run prod.yaml --start "2026-08-25 09:00:00" --end "2026-08-25 10:30:00"

  # Inspect the assembled prompt without calling the LLM
  cloudsleuth run prod.yaml --dry-run --print-prompt-data
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runDuration    int64
	runStart       string
	runEnd         string
	runPrintPrompt bool
	runDryRun      bool
	runPlain       bool
	runConcurrency int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int64Var(&runDuration, "duration", 3600,
		"Lookback window in seconds, ending now. Ignored when --start and --end are set")
	runCmd.Flags().StringVar(&runStart, "start", "",
		"Window start [format: 2006-01-02 15:04:05 or a relative expression]. Requires --end")
	runCmd.Flags().StringVar(&runEnd, "end", "",
		"Window end [format: 2006-01-02 15:04:05 or a relative expression]. Requires --start")
	runCmd.Flags().BoolVar(&runPrintPrompt, "print-prompt-data", false,
		"Print the raw prompt data")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false,
		"Dry run mode, don't generate a diagnosis")
	runCmd.Flags().BoolVar(&runPlain, "plain", false,
		"Disable the interactive progress display")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", orchestrator.DefaultConcurrency,
		"Maximum number of datasources fetched in parallel (1 = sequential)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := setupLog(logLevelFlags); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	runID := uuid.NewString()
	logger := logging.GetLogger("cli").WithField("run_id", runID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted, shutting down...")
		cancel()
	}()

	configPath := defaultConfigFile
	if len(args) == 1 {
		configPath = args[0]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	loc, err := cfg.General.Location()
	if err != nil {
		return err
	}

	now := time.Now()
	var startTS, endTS *time.Time
	if runStart != "" {
		ts, err := timewindow.ParseTimestamp(runStart, now, loc)
		if err != nil {
			return err
		}
		startTS = &ts
	}
	if runEnd != "" {
		ts, err := timewindow.ParseTimestamp(runEnd, now, loc)
		if err != nil {
			return err
		}
		endTS = &ts
	}

	w, err := timewindow.Resolve(now, time.Duration(runDuration)*time.Second, startTS, endTS, loc)
	if err != nil {
		return err
	}

	sources := datasource.FromConfig(cfg)

	clients, err := awsclient.New(ctx, awsclient.Config{
		Profile: cfg.General.Profile,
		Region:  cfg.General.Region,
	})
	if err != nil {
		return err
	}

	tracingProvider, err := tracing.New(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		TLSCAPath:   cfg.Tracing.TLSCAPath,
		TLSInsecure: cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Warn("failed to initialize tracing (continuing without it): %v", err)
		tracingProvider = nil
	}
	if tracingProvider != nil {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = tracingProvider.Shutdown(shutdownCtx)
		}()
	}

	metrics := orchestrator.NewMetrics(runID)
	defer func() {
		if cfg.Metrics.PushgatewayURL == "" {
			return
		}
		if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn("failed to push metrics: %v", err)
		}
	}()

	logger.Info("%d datasources, window %s", len(sources), w)

	fmt.Fprintln(os.Stderr, tui.Banner(Version))
	fmt.Fprintf(os.Stderr, "window: %s\n\n", w)

	interactive := tui.IsTerminal() && !runPlain
	var observer orchestrator.Observer
	var progress *tui.Progress
	if interactive {
		progress = tui.NewProgress(sources, cancel)
		progress.Start(ctx)
		observer = progress
	} else {
		observer = tui.NewPlainProgress(os.Stderr)
	}

	tracer := otel.Tracer("cloudsleuth")
	if tracingProvider != nil {
		tracer = tracingProvider.Tracer("cloudsleuth")
	}

	fragments, failures, runErr := orchestrator.Run(ctx, sources, w, clients, orchestrator.Options{
		Concurrency: runConcurrency,
		Observer:    observer,
		Metrics:     metrics,
		Tracer:      tracer,
	})

	if progress != nil {
		if err := progress.Finish(); err != nil {
			logger.Debug("progress display: %v", err)
		}
	}

	if len(failures) > 0 {
		fmt.Fprint(os.Stderr, orchestrator.FormatFailures(failures))
	}
	if runErr != nil {
		return runErr
	}

	promptText := prompt.Assemble(fragments)
	estimatedTokens := prompt.EstimateTokens(promptText)
	metrics.ObservePrompt(len(promptText), estimatedTokens)

	if runPrintPrompt {
		fmt.Printf("\n%s\n\n", promptText)
	}

	if runDryRun {
		logger.Info("dry run, skipping diagnosis")
		return nil
	}

	provider, err := diagnosis.New(cfg.Diagnosis)
	if err != nil {
		return err
	}

	logger.Info("requesting diagnosis from %s (%s), prompt ~%d tokens",
		provider.Name(), provider.Model(), estimatedTokens)

	diagCtx, diagSpan := tracer.Start(ctx, "diagnosis", trace.WithAttributes(
		attribute.String("diagnosis.provider", provider.Name()),
		attribute.String("diagnosis.model", provider.Model()),
	))
	diag, err := provider.Diagnose(diagCtx, prompt.Instruction, promptText)
	if err != nil {
		diagSpan.RecordError(err)
		diagSpan.SetStatus(codes.Error, "diagnosis failed")
		diagSpan.End()
		// The gathered data stays printable even when the provider fails.
		if !runPrintPrompt {
			fmt.Printf("\n%s\n\n", promptText)
		}
		return err
	}
	diagSpan.SetStatus(codes.Ok, "")
	diagSpan.End()

	if interactive {
		fmt.Print(tui.RenderMarkdown(diag))
	} else {
		fmt.Println(diag)
	}

	return nil
}
