package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"smugmirror/pkg/report"
	"smugmirror/pkg/ui"
)

// exitInterrupted follows the shell convention for SIGINT
const exitInterrupted = 130

var mirrorOpts struct {
	album             []string
	albumList         string
	output            string
	session           string
	endpoint          string
	concurrency       int
	pagination        string
	dryRun            bool
	report            string
	requestsPerMinute int
	maxAttempts       int
	backoff           string
}

// mirrorCmd represents the mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror <user>",
	Short: "Download every album of a user",
	Long: `Download every album of a SmugMug user into <output>/<album url path>/.

Files that already exist are left alone, so rerunning after an interruption
picks up where the previous run stopped. Albums can be restricted with
repeated --album flags or a "$"-separated --albums list.`,
	Example: `  # Mirror everything into the current directory
  smugmirror mirror jdoe

  # The subcommand is optional
  smugmirror jdoe --output ./photos

  # Only two albums, four parallel downloads
  smugmirror mirror jdoe --albums 'Trip 2019$Family' --concurrency 4

  # See what would be downloaded
  smugmirror mirror jdoe --dry-run --report plan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMirror,
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
	bindMirrorFlags(mirrorCmd)
}

// bindMirrorFlags registers the mirror flags; the root command gets them too
// so that `smugmirror <user> --flag` works.
func bindMirrorFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&mirrorOpts.album, "album", "a", nil, "album name to mirror (repeatable)")
	cmd.Flags().StringVar(&mirrorOpts.albumList, "albums", "", `"$"-separated album names to mirror`)
	cmd.Flags().StringVarP(&mirrorOpts.output, "output", "o", "", "output directory (default: current directory)")
	cmd.Flags().StringVar(&mirrorOpts.session, "session", "", "SMSESS session cookie value")
	cmd.Flags().StringVar(&mirrorOpts.endpoint, "endpoint", "", "gallery base URL")
	cmd.Flags().IntVar(&mirrorOpts.concurrency, "concurrency", 1, "parallel downloads per album")
	cmd.Flags().StringVar(&mirrorOpts.pagination, "pagination", "", "on a failed continuation page: truncate or abort")
	cmd.Flags().BoolVar(&mirrorOpts.dryRun, "dry-run", false, "resolve everything but download nothing")
	cmd.Flags().StringVar(&mirrorOpts.report, "report", "", "write a run report (.json or .yaml)")
	cmd.Flags().IntVar(&mirrorOpts.requestsPerMinute, "requests-per-minute", 0, "throttle API requests (0 disables)")
	cmd.Flags().IntVar(&mirrorOpts.maxAttempts, "max-attempts", 0, "attempts per API resource (default 5)")
	cmd.Flags().StringVar(&mirrorOpts.backoff, "backoff", "", "delay between attempts: none, constant, linear or exponential")
}

func runMirror(cmd *cobra.Command, args []string) error {
	user := strings.TrimSpace(args[0])
	if user == "" {
		return withExitCode(1, errors.New("user is required"))
	}

	cfg, err := loadConfig(cmd, user)
	if err != nil {
		return withExitCode(1, err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return withExitCode(1, err)
	}

	ui.PrintBanner()
	ui.PrintInfo("User", user)
	ui.PrintInfo("Output", a.mirror.Options().OutputRoot)
	if cfg.Mirror.DryRun {
		ui.PrintWarning("Dry run: nothing will be written")
	}

	if !ui.IsQuietMode() {
		a.mirror.SetProgress(ui.NewStatusTracker())
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := a.mirror.Run(ctx)
	if summary != nil {
		ui.PrintSummary(summary)
		if path := cfg.Output.ReportFile; path != "" {
			if err := report.Write(a.store, path, summary); err != nil {
				a.log.WithError(err).Error("Could not write run report")
				ui.PrintError("Failed to write report", err)
			} else {
				ui.PrintInfo("Report", path)
			}
		}
	}

	return withExitCode(exitCode(runErr), runErr)
}

// exitCode maps a run error to the process exit status. Skipped albums and
// records are not errors, so a finished run is always 0; enumeration
// failures are 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		return 1
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
