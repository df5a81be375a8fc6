package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"diaspora-setup/internal/config"
	"diaspora-setup/internal/logger"
	"diaspora-setup/internal/state"
)

// Runner executes command specs one at a time, reporting their output as it arrives.
type Runner struct {
	exec     Executor
	reporter *logger.Reporter
	settings *config.Settings
	state    *state.RunState
	diag     *zap.Logger

	last Status
}

// NewRunner wires a Runner. A nil executor means OSExecutor, a nil diag logger disables
// diagnostics.
func NewRunner(exec Executor, reporter *logger.Reporter, settings *config.Settings, st *state.RunState, diag *zap.Logger) *Runner {
	if exec == nil {
		exec = OSExecutor{}
	}
	if diag == nil {
		diag = zap.NewNop()
	}
	return &Runner{
		exec:     exec,
		reporter: reporter,
		settings: settings,
		state:    st,
		diag:     diag,
	}
}

// Invocation builds the argv for spec. Plain commands go through sh; interactive and
// version-manager-aware ones through an interactive bash, the latter prefixed with sourcing
// the detected rvm script and switching to the verified ruby environment.
func (r *Runner) Invocation(spec CommandSpec) Invocation {
	if !spec.Modes.Has(Interactive) && !spec.Modes.Has(VersionManagerAware) {
		return Invocation{Argv: []string{"sh", "-c", spec.Line}, Dir: spec.Dir}
	}

	script := spec.Line
	if spec.Modes.Has(VersionManagerAware) {
		script = r.versionManagerPrefix() + script
	}
	return Invocation{Argv: []string{"bash", "-i", "-c", script}, Dir: spec.Dir}
}

// versionManagerPrefix switches to what the preflight checks verified: nothing without rvm,
// the gemset only when it could be used or created.
func (r *Runner) versionManagerPrefix() string {
	if !r.state.RVMFound {
		return ""
	}

	var prefix string
	if r.state.RVMScriptSourced() {
		prefix = ". " + Quote(r.settings.RVMScript(r.state.RVMSourceLocal)) + " && "
	}

	env := r.settings.RubyVersion
	if r.state.GemsetActive {
		env = r.settings.RubyEnvironment()
	}
	return prefix + "rvm use " + Quote(env) + " && "
}

// Run executes spec and returns its trimmed standard output (empty in Silent mode) and exit
// status. Standard output lines are reported at the verbose level, standard error lines as
// warnings. A command that cannot be started yields a failed status, not an error.
func (r *Runner) Run(ctx context.Context, spec CommandSpec) Result {
	inv := r.Invocation(spec)
	r.reporter.Debug("running: " + inv.String())

	if r.settings.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.settings.CommandTimeout)
		defer cancel()
	}

	var out strings.Builder
	start := time.Now()
	code, err := r.exec.Execute(ctx, inv, func(stream Stream, line string) {
		if stream == Stderr {
			r.reporter.Warn(line)
			return
		}
		r.reporter.Verbose(line)
		out.WriteString(line)
		out.WriteString("\n")
	})
	if err != nil {
		if code == 0 {
			code = exitNotStarted
		}
		r.reporter.Warn(fmt.Sprintf("could not run '%s': %v", spec.Line, err))
	}

	r.last = Status{Code: code}
	r.reporter.Debug(fmt.Sprintf("exit status %d", code))
	r.diag.Debug("command finished",
		zap.Strings("argv", inv.Argv),
		zap.String("dir", inv.Dir),
		zap.Int("exit_code", code),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)

	if spec.Modes.Has(Silent) {
		return Result{Status: r.last}
	}
	return Result{Output: strings.TrimSpace(out.String()), Status: r.last}
}

// RunOrFail runs spec and turns a non-zero exit status into a fatal error.
func (r *Runner) RunOrFail(ctx context.Context, spec CommandSpec) (string, error) {
	res := r.Run(ctx, spec)
	if !res.Status.Success() {
		r.diag.Error("command failed", zap.String("command", spec.Line), zap.Int("exit_code", res.Status.Code))
		return res.Output, r.reporter.Fatal(fmt.Sprintf("executing '%s' failed!", spec.Line))
	}
	return res.Output, nil
}

// LastStatus is the exit status of the most recent command.
func (r *Runner) LastStatus() Status {
	return r.last
}

// Which looks name up on the PATH, quietly.
func (r *Runner) Which(ctx context.Context, name string) Result {
	return r.Run(ctx, CommandSpec{Line: "which " + Quote(name), Modes: Silent})
}

// Builtin runs line inside an interactive bash, where shell functions like rvm are loaded.
func (r *Runner) Builtin(ctx context.Context, line string) Result {
	return r.Run(ctx, CommandSpec{Line: line, Modes: Interactive})
}
