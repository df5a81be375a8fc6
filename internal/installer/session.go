package installer

import (
	"context"
	"os"

	"go.uber.org/zap"

	"diaspora-setup/internal/config"
	"diaspora-setup/internal/logger"
	"diaspora-setup/internal/messages"
	"diaspora-setup/internal/preflight"
	"diaspora-setup/internal/shell"
	"diaspora-setup/internal/state"
)

// Session is one complete run of the installer: guards, welcome, preflight checks,
// the installation pipeline and the closing banner.
type Session struct {
	Reporter *logger.Reporter
	Checker  *preflight.Checker
	Pipeline *Pipeline
	State    *state.RunState
	Diag     *zap.Logger

	// UID returns the effective user id; os.Geteuid when nil.
	UID func() int
}

// NewSession wires the checks and the pipeline around one runner.
func NewSession(reporter *logger.Reporter, runner *shell.Runner, settings *config.Settings, st *state.RunState, diag *zap.Logger) *Session {
	if diag == nil {
		diag = zap.NewNop()
	}
	return &Session{
		Reporter: reporter,
		Checker:  preflight.New(reporter, runner, settings, st, diag),
		Pipeline: NewPipeline(reporter, runner, settings, st, diag),
		State:    st,
		Diag:     diag,
		UID:      os.Geteuid,
	}
}

// Run performs the whole installation. The returned error is a *logger.FatalError for every
// condition that was already reported to the user.
func (s *Session) Run(ctx context.Context) error {
	s.Diag.Info("session started",
		zap.Stringer("verbosity", s.State.Verbosity),
		zap.Bool("headless", s.State.Headless),
		zap.Bool("allow_root", s.State.AllowRoot),
	)

	if !s.State.AllowRoot && s.uid() == 0 {
		return s.Reporter.Fatal(s.Reporter.Message(messages.NoRoot))
	}
	if !s.State.Headless {
		if err := s.Reporter.EnsureInteractive(); err != nil {
			return err
		}
	}

	s.Reporter.Text(s.Reporter.Message(messages.Welcome))
	if _, err := s.Reporter.Prompt(messages.PressEnter, false); err != nil {
		return err
	}

	if err := s.Checker.All(ctx); err != nil {
		return err
	}
	if err := s.Pipeline.Run(ctx); err != nil {
		return err
	}

	s.Reporter.Text(s.Reporter.Message(messages.Bye))
	s.Diag.Info("session finished", zap.String("checkout", s.State.ClonePath))
	return nil
}

func (s *Session) uid() int {
	if s.UID == nil {
		return os.Geteuid()
	}
	return s.UID()
}
