package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diaspora-setup/internal/config"
	"diaspora-setup/internal/installer"
	"diaspora-setup/internal/logger"
	"diaspora-setup/internal/messages"
	"diaspora-setup/internal/shell"
	"diaspora-setup/internal/state"
)

// versionLookupTimeout bounds the startup lookup of the required ruby version.
const versionLookupTimeout = 10 * time.Second

// options are the command line flags of a run.
type options struct {
	debug     bool
	verbose   bool
	allowRoot bool
	headless  bool
	offline   bool

	configPath string
	logFile    string
	timeout    time.Duration
}

// newState turns the flags into the initial run state. --verbose wins over --debug.
func (o *options) newState(settings *config.Settings) *state.RunState {
	st := state.New(settings.ClonePath)
	switch {
	case o.verbose:
		st.Verbosity = state.Verbose
	case o.debug:
		st.Verbosity = state.Debug
	}
	st.AllowRoot = o.allowRoot
	st.Headless = o.headless
	return st
}

// newRootCmd builds the diaspora-setup command. Prompts are read from in and all
// progress is written to out.
func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "diaspora-setup",
		Short: "Set up a diaspora* development environment",
		Long: `diaspora-setup checks the prerequisites of a diaspora* development setup, clones
or updates the source code, creates the config files from their templates, installs
the gems and populates the database.

Do not use it for production installations.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				settings.CommandTimeout = opts.timeout
			}
			return run(cmd.Context(), opts, settings, in, out)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.debug, "debug", "d", false, "show debug output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show all output, including the output of every command")
	flags.BoolVarP(&opts.allowRoot, "allowroot", "r", false, "allow running as root")
	flags.BoolVarP(&opts.headless, "headless", "y", false, "don't ask for input, use the default answers")
	flags.BoolVar(&opts.offline, "offline", false, "don't look up the required ruby version online")
	flags.StringVar(&opts.configPath, "config", "", "YAML file overriding the built-in settings")
	flags.StringVar(&opts.logFile, "log-file", "", "write a diagnostics log of every command to this file")
	flags.DurationVar(&opts.timeout, "timeout", 0, "abort commands running longer than this (0 disables)")

	cmd.SetIn(in)
	cmd.SetOut(out)
	return cmd
}

func run(ctx context.Context, opts *options, settings *config.Settings, in io.Reader, out io.Writer) error {
	st := opts.newState(settings)

	// Diagnostics go to --log-file only; without it every call is a no-op
	diag, err := logger.NewDiagnostics(opts.logFile, opts.debug || opts.verbose)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", opts.logFile, err)
	}
	defer func() { _ = diag.Sync() }()

	// The Reporter owns the console for the rest of the run
	reporter := logger.New(out, in, st, messages.NewCatalog(settings))
	defer reporter.Flush()

	// Look up the ruby version and gemset the develop branch expects, before anything else
	if !opts.offline {
		lookupCtx, cancel := context.WithTimeout(ctx, versionLookupTimeout)
		err := config.FetchRemoteVersions(lookupCtx, &http.Client{}, settings)
		cancel()
		if err != nil {
			reporter.Warn(fmt.Sprintf("%v, using ruby %s", err, settings.RubyEnvironment()))
		}
	}
	reporter.Debug(fmt.Sprintf("required ruby environment: %s", settings.RubyEnvironment()))

	// Every external command of the run goes through this one runner
	runner := shell.NewRunner(shell.OSExecutor{}, reporter, settings, st, diag)
	return installer.NewSession(reporter, runner, settings, st, diag).Run(ctx)
}

// ExitCode maps the result of a run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Execute runs the root command on the process streams and exits with its status.
// Fatal conditions have already been reported; any other error is printed here.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil && !logger.IsFatal(err) {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
