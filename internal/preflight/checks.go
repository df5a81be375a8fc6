package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"diaspora-setup/internal/config"
	"diaspora-setup/internal/logger"
	"diaspora-setup/internal/messages"
	"diaspora-setup/internal/shell"
	"diaspora-setup/internal/state"
)

// jsRuntimeNames are tried in order; Debian ships node as "nodejs".
var jsRuntimeNames = []string{"node", "nodejs"}

// Checker verifies the prerequisites of a development install.
// Missing binaries, a wrong ruby version, no JavaScript runtime and no bundler end the run;
// a missing rvm or gemset only warns.
type Checker struct {
	reporter *logger.Reporter
	runner   *shell.Runner
	settings *config.Settings
	state    *state.RunState
	diag     *zap.Logger

	fileExists func(path string) bool
}

// New returns a Checker. A nil diag logger disables diagnostics.
func New(reporter *logger.Reporter, runner *shell.Runner, settings *config.Settings, st *state.RunState, diag *zap.Logger) *Checker {
	if diag == nil {
		diag = zap.NewNop()
	}
	return &Checker{
		reporter:   reporter,
		runner:     runner,
		settings:   settings,
		state:      st,
		diag:       diag,
		fileExists: fileExists,
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// All runs every check in order and stops at the first fatal one.
func (c *Checker) All(ctx context.Context) error {
	checks := []func(context.Context) error{
		c.Binaries,
		c.VersionManager,
		c.RubyVersion,
		c.Gemset,
		c.JSRuntime,
		c.Bundler,
	}
	for _, check := range checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Binaries looks up every required executable in configured order and fails on the first
// one that is missing.
func (c *Checker) Binaries(ctx context.Context) error {
	for _, b := range c.settings.Binaries {
		c.reporter.Info(fmt.Sprintf("checking for %s...", b.Name))

		if !c.runner.Which(ctx, b.Command).Status.Success() {
			c.verdict("binary "+b.Command, false)
			return c.reporter.Fatal(fmt.Sprintf("you are missing the %s command, please install %s", b.Command, b.Name))
		}
		c.verdict("binary "+b.Command, true)
		c.reporter.Append("found")
	}
	return nil
}

// VersionManager detects rvm, either loaded as a shell function or as a script at the
// per-user or system location. Without it the user is asked to continue anyway.
func (c *Checker) VersionManager(ctx context.Context) error {
	c.reporter.Info("checking for rvm...")

	// rc files may print banners, the answer is the last line
	res := c.runner.Builtin(ctx, "type -t rvm")
	if res.Status.Success() && lastLine(res.Output) == "function" {
		c.state.RVMFound = true
	}

	// The per-user install takes precedence over the system one
	if c.fileExists(c.settings.RVMLocalPath) {
		c.state.RVMSourceLocal = true
	} else if c.fileExists(c.settings.RVMSystemPath) {
		c.state.RVMSourceSystem = true
	}
	c.diag.Info("rvm detection",
		zap.Bool("function", c.state.RVMFound),
		zap.Bool("local_script", c.state.RVMSourceLocal),
		zap.Bool("system_script", c.state.RVMSourceSystem),
	)

	if c.state.RVMFound {
		c.reporter.Append("found")
		return nil
	}

	c.reporter.Append("not found")
	c.reporter.Warn(c.reporter.Message(messages.RVMNotFound))
	_, err := c.reporter.Prompt(messages.RVMContinue, false)
	return err
}

// RubyVersion switches rvm to the required ruby. Skipped without rvm.
func (c *Checker) RubyVersion(ctx context.Context) error {
	if !c.state.RVMFound {
		return nil
	}
	c.reporter.Info("checking ruby version...")

	if c.runner.Builtin(ctx, "rvm use "+shell.Quote(c.settings.RubyVersion)).Status.Success() {
		c.verdict("ruby "+c.settings.RubyVersion, true)
		c.reporter.Append("ok")
		return nil
	}

	c.verdict("ruby "+c.settings.RubyVersion, false)
	c.reporter.Append("not ok")
	c.reporter.Emit(logger.LevelText, c.reporter.Message(messages.RubyVersionMismatch))
	return c.reporter.Fatal(c.reporter.Message(messages.RubyVersionFatal))
}

// Gemset activates the named gemset, creating it when it does not exist yet.
// Skipped without rvm or without a configured gemset.
func (c *Checker) Gemset(ctx context.Context) error {
	if !c.state.RVMFound || c.settings.Gemset == "" {
		return nil
	}
	c.reporter.Info(fmt.Sprintf("checking for gemset '%s'...", c.settings.Gemset))

	if c.runner.Builtin(ctx, "rvm use "+shell.Quote(c.settings.RubyEnvironment())).Status.Success() {
		c.state.GemsetActive = true
		c.verdict("gemset "+c.settings.Gemset, true)
		c.reporter.Append("found")
		return nil
	}
	c.reporter.Append("not found")

	c.reporter.Info(fmt.Sprintf("trying to create gemset '%s'...", c.settings.Gemset))
	create := fmt.Sprintf("rvm use %s && rvm gemset create %s",
		shell.Quote(c.settings.RubyVersion), shell.Quote(c.settings.Gemset))
	if c.runner.Builtin(ctx, create).Status.Success() {
		c.state.GemsetActive = true
		c.verdict("gemset "+c.settings.Gemset, true)
		c.reporter.Append("ok")
		return nil
	}

	// later commands fall back to the default gemset of the ruby
	c.verdict("gemset "+c.settings.Gemset, false)
	c.reporter.Append("failed")
	c.reporter.Warn(c.reporter.Message(messages.GemsetNotFound))
	_, err := c.reporter.Prompt(messages.GemsetContinue, false)
	return err
}

// JSRuntime looks for node (under either name) or, failing that, therubyracer.
func (c *Checker) JSRuntime(ctx context.Context) error {
	c.reporter.Info("checking for a JavaScript runtime...")

	for _, name := range jsRuntimeNames {
		if c.runner.Which(ctx, name).Status.Success() {
			c.state.JSRuntimeFound = true
			break
		}
	}
	// Fall back to therubyracer embedded in ruby
	if !c.state.JSRuntimeFound {
		embedded := shell.CommandSpec{Line: c.settings.Commands.EmbeddedJS, Modes: shell.Silent}
		if c.runner.Run(ctx, embedded).Status.Success() {
			c.state.JSRuntimeFound = true
		}
	}

	c.verdict("js runtime", c.state.JSRuntimeFound)
	if c.state.JSRuntimeFound {
		c.reporter.Append("found")
		return nil
	}

	c.reporter.Append("not found")
	c.reporter.Emit(logger.LevelText, c.reporter.Message(messages.JSRuntimeNotFound))
	return c.reporter.Fatal(c.reporter.Message(messages.JSRuntimeFatal))
}

// Bundler checks for the bundler gem and installs it once if it is missing.
func (c *Checker) Bundler(ctx context.Context) error {
	c.reporter.Info("checking for 'bundler' gem...")

	check := shell.CommandSpec{Line: c.settings.Commands.BundlerCheck, Modes: shell.Interactive | shell.Silent}
	if c.runner.Run(ctx, check).Status.Success() {
		c.verdict("bundler", true)
		c.reporter.Append("found")
		return nil
	}

	c.reporter.Append("not ok")
	c.reporter.Info(c.reporter.Message(messages.BundlerTryInstall))
	install := shell.CommandSpec{Line: c.settings.Commands.BundlerInstall, Modes: shell.Interactive}
	if c.runner.Run(ctx, install).Status.Success() {
		c.verdict("bundler", true)
		c.reporter.Append("ok")
		return nil
	}

	c.verdict("bundler", false)
	return c.reporter.Fatal(c.reporter.Message(messages.BundlerFatal))
}

func (c *Checker) verdict(check string, ok bool) {
	c.diag.Info("preflight", zap.String("check", check), zap.Bool("ok", ok))
}

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return strings.TrimSpace(s)
}
