package preflight

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diaspora-setup/internal/config"
	"diaspora-setup/internal/logger"
	"diaspora-setup/internal/messages"
	"diaspora-setup/internal/shell"
	"diaspora-setup/internal/shell/shelltest"
	"diaspora-setup/internal/state"
)

type fixture struct {
	exec     *shelltest.Executor
	state    *state.RunState
	out      *bytes.Buffer
	reporter *logger.Reporter
	checker  *Checker
	files    map[string]bool
}

// output returns everything printed so far, including a line held back for amending.
func (f *fixture) output() string {
	f.reporter.Flush()
	return f.out.String()
}

// newFixture builds a headless checker on a scripted executor. input, when given, switches
// to interactive mode and is used as the answers to prompts.
func newFixture(t *testing.T, input ...string) *fixture {
	t.Helper()
	settings := config.Defaults()
	settings.RVMLocalPath = "/home/dev/.rvm/scripts/rvm"

	st := state.New(settings.ClonePath)
	opts := []logger.Option{logger.WithTerminal(false)}
	if len(input) == 0 {
		st.Headless = true
	} else {
		opts = append(opts, logger.WithInteractiveInput(true))
	}

	out := &bytes.Buffer{}
	rep := logger.New(out, strings.NewReader(strings.Join(input, "")), st, messages.NewCatalog(settings), opts...)
	exec := &shelltest.Executor{}
	runner := shell.NewRunner(exec, rep, settings, st, nil)

	f := &fixture{
		exec:     exec,
		state:    st,
		out:      out,
		reporter: rep,
		checker:  New(rep, runner, settings, st, nil),
		files:    map[string]bool{},
	}
	f.checker.fileExists = func(path string) bool { return f.files[path] }
	return f
}

func TestBinariesAllFound(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.checker.Binaries(context.Background()))

	assert.Equal(t, []string{
		"which 'bash'",
		"which 'git'",
		"which 'ruby'",
		"which 'gem'",
		"which 'redis-server'",
	}, f.exec.Scripts())
	assert.Regexp(t, `checking for redis\.+ found`, f.output())
}

func TestBinariesStopAtFirstMissing(t *testing.T) {
	f := newFixture(t)
	f.exec.Fail("which 'ruby'")

	err := f.checker.Binaries(context.Background())

	require.Error(t, err)
	assert.True(t, logger.IsFatal(err))
	assert.Equal(t, []string{"which 'bash'", "which 'git'", "which 'ruby'"}, f.exec.Scripts())
	assert.Contains(t, f.output(), "you are missing the ruby command, please install ruby")
}

func TestVersionManagerFound(t *testing.T) {
	f := newFixture(t)
	f.exec.Reply("type -t rvm", "function")
	f.files["/home/dev/.rvm/scripts/rvm"] = true
	f.files["/usr/local/rvm/scripts/rvm"] = true

	require.NoError(t, f.checker.VersionManager(context.Background()))

	assert.True(t, f.state.RVMFound)
	assert.True(t, f.state.RVMSourceLocal)
	assert.False(t, f.state.RVMSourceSystem)
	assert.Regexp(t, `checking for rvm\.+ found`, f.output())
}

func TestVersionManagerFunctionAfterShellNoise(t *testing.T) {
	f := newFixture(t)
	f.exec.Reply("type -t rvm", "Welcome back!", "function")

	require.NoError(t, f.checker.VersionManager(context.Background()))

	assert.True(t, f.state.RVMFound)
}

func TestVersionManagerMissingWarnsAndContinues(t *testing.T) {
	f := newFixture(t)
	f.exec.Fail("type -t rvm")
	f.files["/usr/local/rvm/scripts/rvm"] = true

	require.NoError(t, f.checker.VersionManager(context.Background()))

	assert.False(t, f.state.RVMFound)
	assert.True(t, f.state.RVMSourceSystem)
	assert.Regexp(t, `checking for rvm\.+ not found`, f.output())
	assert.Contains(t, f.output(), "[ warn  ] -- RVM was not found on your system")
}

func TestVersionManagerMissingAsksToContinue(t *testing.T) {
	f := newFixture(t, "\n")
	f.exec.Reply("type -t rvm", "file")

	require.NoError(t, f.checker.VersionManager(context.Background()))

	assert.False(t, f.state.RVMFound)
	assert.Contains(t, f.output(), "continue without RVM")
}

func TestRubyVersionSkippedWithoutRVM(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.checker.RubyVersion(context.Background()))
	require.NoError(t, f.checker.Gemset(context.Background()))

	assert.Empty(t, f.exec.Calls)
}

func TestRubyVersion(t *testing.T) {
	f := newFixture(t)
	f.state.RVMFound = true

	require.NoError(t, f.checker.RubyVersion(context.Background()))

	assert.Equal(t, []string{"rvm use '2.0.0-p353'"}, f.exec.Scripts())
	assert.Equal(t, []string{"bash", "-i", "-c", "rvm use '2.0.0-p353'"}, f.exec.Calls[0].Argv)
}

func TestRubyVersionMismatchIsFatal(t *testing.T) {
	f := newFixture(t)
	f.state.RVMFound = true
	f.exec.Fail("rvm use '2.0.0-p353'")

	err := f.checker.RubyVersion(context.Background())

	assert.True(t, logger.IsFatal(err))
	assert.Contains(t, f.output(), "rvm install 2.0.0-p353")
	assert.Contains(t, f.output(), "install the right ruby version")
}

func TestGemset(t *testing.T) {
	tests := []struct {
		name       string
		failUse    bool
		failCreate bool
		created    bool
		warned     bool
		active     bool
	}{
		{name: "exists", active: true},
		{name: "created", failUse: true, created: true, active: true},
		{name: "cannot be created", failUse: true, failCreate: true, created: true, warned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.state.RVMFound = true
			if tt.failUse {
				f.exec.Fail("rvm use '2.0.0-p353@diaspora'")
			}
			if tt.failCreate {
				f.exec.Fail("rvm gemset create 'diaspora'")
			}

			require.NoError(t, f.checker.Gemset(context.Background()))

			assert.Equal(t, tt.created, f.exec.Ran("rvm gemset create 'diaspora'"))
			assert.Equal(t, tt.active, f.state.GemsetActive)
			if tt.warned {
				assert.Contains(t, f.output(), "Unable to use or create the gemset 'diaspora'")
			} else {
				assert.NotContains(t, f.output(), "[ warn  ]")
			}
		})
	}
}

func TestGemsetSkippedWhenNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.state.RVMFound = true
	f.checker.settings.Gemset = ""

	require.NoError(t, f.checker.Gemset(context.Background()))

	assert.Empty(t, f.exec.Calls)
}

func TestJSRuntime(t *testing.T) {
	tests := []struct {
		name    string
		fail    []string
		scripts []string
		found   bool
	}{
		{
			name:    "node",
			scripts: []string{"which 'node'"},
			found:   true,
		},
		{
			name:    "nodejs",
			fail:    []string{"which 'node'"},
			scripts: []string{"which 'node'", "which 'nodejs'"},
			found:   true,
		},
		{
			name:    "therubyracer",
			fail:    []string{"which 'node'", "which 'nodejs'"},
			scripts: []string{"which 'node'", "which 'nodejs'", `ruby -e 'require "v8"'`},
			found:   true,
		},
		{
			name:    "none",
			fail:    []string{"which 'node'", "which 'nodejs'", "v8"},
			scripts: []string{"which 'node'", "which 'nodejs'", `ruby -e 'require "v8"'`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, m := range tt.fail {
				f.exec.Fail(m)
			}

			err := f.checker.JSRuntime(context.Background())

			assert.Equal(t, tt.scripts, f.exec.Scripts())
			assert.Equal(t, tt.found, f.state.JSRuntimeFound)
			if tt.found {
				assert.NoError(t, err)
			} else {
				assert.True(t, logger.IsFatal(err))
				assert.Contains(t, f.output(), "Can't continue without a JS runtime!")
			}
		})
	}
}

func TestBundler(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.checker.Bundler(context.Background()))

	assert.Equal(t, []string{"gem which bundler"}, f.exec.Scripts())
	assert.Equal(t, "bash", f.exec.Calls[0].Argv[0])
}

func TestBundlerInstalledOnDemand(t *testing.T) {
	f := newFixture(t)
	f.exec.Fail("gem which bundler")

	require.NoError(t, f.checker.Bundler(context.Background()))

	assert.Equal(t, []string{"gem which bundler", "gem install bundler"}, f.exec.Scripts())
	assert.Contains(t, f.output(), "trying to install bundler...")
}

func TestBundlerInstallFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.exec.Fail("gem which bundler")
	f.exec.Fail("gem install bundler")

	err := f.checker.Bundler(context.Background())

	assert.True(t, logger.IsFatal(err))
	assert.Contains(t, f.output(), "'bundler' gem was not found and could not be installed!")
}

func TestAllStopsAtFirstFatalCheck(t *testing.T) {
	f := newFixture(t)
	f.exec.Fail("which 'git'")

	err := f.checker.All(context.Background())

	assert.True(t, logger.IsFatal(err))
	assert.False(t, f.exec.Ran("type -t rvm"))
	assert.False(t, f.exec.Ran("bundler"))
}

func TestAllPasses(t *testing.T) {
	f := newFixture(t)
	f.exec.Reply("type -t rvm", "function")

	require.NoError(t, f.checker.All(context.Background()))

	assert.True(t, f.state.RVMFound)
	assert.True(t, f.state.JSRuntimeFound)
	assert.True(t, f.exec.Ran("rvm use '2.0.0-p353@diaspora'"))
	assert.True(t, f.exec.Ran("gem which bundler"))
}
