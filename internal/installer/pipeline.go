package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"diaspora-setup/internal/config"
	"diaspora-setup/internal/logger"
	"diaspora-setup/internal/messages"
	"diaspora-setup/internal/shell"
	"diaspora-setup/internal/state"
)

// Pipeline performs the installation steps once all preflight checks passed.
// Every step after AcquireRepository works inside the checkout recorded in the run state.
type Pipeline struct {
	reporter *logger.Reporter
	runner   *shell.Runner
	settings *config.Settings
	state    *state.RunState
	diag     *zap.Logger
}

// NewPipeline returns a Pipeline. A nil diag logger disables diagnostics.
func NewPipeline(reporter *logger.Reporter, runner *shell.Runner, settings *config.Settings, st *state.RunState, diag *zap.Logger) *Pipeline {
	if diag == nil {
		diag = zap.NewNop()
	}
	return &Pipeline{
		reporter: reporter,
		runner:   runner,
		settings: settings,
		state:    st,
		diag:     diag,
	}
}

type step struct {
	name string
	run  func(context.Context) error
}

// Run executes all steps in their fixed order and stops at the first fatal one.
func (p *Pipeline) Run(ctx context.Context) error {
	steps := []step{
		{"acquire repository", p.AcquireRepository},
		{"database config", p.DatabaseConfig},
		{"application config", p.ApplicationConfig},
		{"install dependencies", p.InstallDependencies},
		{"populate database", p.PopulateDatabase},
	}
	for _, s := range steps {
		p.diag.Info("step started", zap.String("step", s.name))
		if err := s.run(ctx); err != nil {
			p.diag.Error("step failed", zap.String("step", s.name), zap.Error(err))
			return err
		}
	}
	return nil
}

// AcquireRepository asks where the checkout lives and makes sure it holds an up to date clone
// of the configured branch: a missing directory is created and cloned into, a directory that
// is no git checkout gets cloned into, and an existing checkout is stashed, switched and pulled.
func (p *Pipeline) AcquireRepository(ctx context.Context) error {
	// Ask for the checkout directory, an empty answer keeps the suggested one
	p.reporter.Text(p.reporter.Message(messages.GitClone))
	answer, err := p.reporter.Prompt(messages.None, true)
	if err != nil {
		return err
	}

	path, err := p.resolvePath(answer)
	if err != nil {
		return p.reporter.Fatal(fmt.Sprintf("invalid path '%s': %v", answer, err))
	}
	// Every later step works inside this directory
	p.state.ClonePath = path
	p.reporter.Debug(path)
	p.diag.Info("checkout path", zap.String("path", path))

	// Pick one of three ways to end up with a current checkout
	switch {
	case !isDir(path):
		return p.createAndClone(ctx, path)
	case !p.isCheckout(ctx, path):
		return p.confirmAndClone(ctx, path)
	default:
		return p.updateCheckout(ctx, path)
	}
}

// resolvePath turns the answer into an absolute path, falling back to the current checkout path.
func (p *Pipeline) resolvePath(answer string) (string, error) {
	if answer == "" {
		answer = p.state.ClonePath
	}
	return filepath.Abs(config.ExpandHome(answer))
}

func (p *Pipeline) isCheckout(ctx context.Context, path string) bool {
	spec := shell.CommandSpec{Line: "git status", Dir: path, Modes: shell.Silent}
	return p.runner.Run(ctx, spec).Status.Success()
}

func (p *Pipeline) createAndClone(ctx context.Context, path string) error {
	p.reporter.Info(p.reporter.Message(messages.GitNonexistentFolder))
	p.reporter.Text(fmt.Sprintf("create '%s'?", path))
	if _, err := p.reporter.Prompt(messages.GitCreateConfirm, false); err != nil {
		return err
	}

	// Create the directory, parents included, then clone into it
	p.reporter.Info(fmt.Sprintf("creating '%s' and cloning the git repo...", path))
	if err := os.MkdirAll(path, 0755); err != nil {
		return p.reporter.Fatal(fmt.Sprintf("could not create '%s': %v", path, err))
	}
	return p.clone(ctx, path)
}

func (p *Pipeline) confirmAndClone(ctx context.Context, path string) error {
	p.reporter.Text(p.reporter.Message(messages.GitNotARepo))
	if _, err := p.reporter.Prompt(messages.GitCreateConfirm, false); err != nil {
		return err
	}

	p.reporter.Info("cloning the git repo...")
	return p.clone(ctx, path)
}

func (p *Pipeline) clone(ctx context.Context, path string) error {
	line := fmt.Sprintf("git clone %s -b %s .", shell.Quote(p.settings.RepoURL), shell.Quote(p.settings.GitBranch))
	if _, err := p.runner.RunOrFail(ctx, shell.CommandSpec{Line: line, Dir: path}); err != nil {
		return err
	}
	p.trustRVMRC(ctx, path)
	return nil
}

func (p *Pipeline) updateCheckout(ctx context.Context, path string) error {
	p.trustRVMRC(ctx, path)

	// Put local changes aside, switch to the branch and fetch its latest state
	p.reporter.Info(fmt.Sprintf("setting your git clone to '%s' branch..", p.settings.GitBranch))
	for _, line := range []string{
		"git stash",
		"git checkout " + shell.Quote(p.settings.GitBranch),
		"git pull",
	} {
		if _, err := p.runner.RunOrFail(ctx, shell.CommandSpec{Line: line, Dir: path, Modes: shell.Silent}); err != nil {
			return err
		}
	}
	return nil
}

// trustRVMRC marks the checkout's .rvmrc as trusted so rvm stops asking about it.
// Nothing happens without rvm or without the file.
func (p *Pipeline) trustRVMRC(ctx context.Context, path string) {
	rvmrc := filepath.Join(path, config.RVMRCFile)
	if !p.state.RVMFound || !isFile(rvmrc) {
		return
	}

	spec := shell.CommandSpec{Line: "rvm rvmrc warning ignore " + shell.Quote(rvmrc), Dir: path, Modes: shell.Interactive}
	if !p.runner.Run(ctx, spec).Status.Success() {
		p.reporter.Warn(fmt.Sprintf("could not mark '%s' as trusted", config.RVMRCFile))
		return
	}
	p.reporter.Info(fmt.Sprintf("'%s' will be trusted from now on", config.RVMRCFile))
}

// DatabaseConfig creates the database config from its template and gives the user time to
// edit it and start the database server.
func (p *Pipeline) DatabaseConfig(ctx context.Context) error {
	if err := p.copyTemplate(config.DatabaseConfig); err != nil {
		return err
	}
	p.reporter.Info(fmt.Sprintf("created DB config file '%s'", config.DatabaseConfig))

	p.reporter.Text(p.reporter.Message(messages.DBCheck))
	if _, err := p.reporter.Prompt(messages.DBCheckDone, false); err != nil {
		return err
	}

	p.reporter.Text(p.reporter.Message(messages.DBMessage))
	_, err := p.reporter.Prompt(messages.PressEnter, false)
	return err
}

// ApplicationConfig creates the application config from its template.
func (p *Pipeline) ApplicationConfig(ctx context.Context) error {
	if err := p.copyTemplate(config.ApplicationConfig); err != nil {
		return err
	}
	p.reporter.Info(fmt.Sprintf("created diaspora* config file '%s'", config.ApplicationConfig))

	p.reporter.Text(p.reporter.Message(messages.ConfigMessage))
	_, err := p.reporter.Prompt(messages.PressEnter, false)
	return err
}

// copyTemplate copies <checkout>/<rel>.example to <checkout>/<rel>. A missing template is fatal.
func (p *Pipeline) copyTemplate(rel string) error {
	dst := filepath.Join(p.state.ClonePath, rel)
	src := dst + config.TemplateSuffix

	// A checkout without the template is broken, nothing to fall back to
	if !isFile(src) {
		return p.reporter.Fatal(fmt.Sprintf("the template '%s' is missing from the checkout", rel+config.TemplateSuffix))
	}
	if err := copyFile(src, dst, 0); err != nil {
		p.diag.Error("template copy failed", zap.String("src", src), zap.String("dst", dst), zap.Error(err))
		return p.reporter.Fatal(fmt.Sprintf("could not create '%s': %v", rel, err))
	}
	p.diag.Info("template copied", zap.String("src", src), zap.String("dst", dst))
	return nil
}

// InstallDependencies runs bundle install inside the ruby environment.
func (p *Pipeline) InstallDependencies(ctx context.Context) error {
	p.reporter.Info("installing all required gems...")
	_, err := p.runner.RunOrFail(ctx, shell.CommandSpec{
		Line:  p.settings.Commands.BundleInstall,
		Dir:   p.state.ClonePath,
		Modes: shell.VersionManagerAware,
	})
	return err
}

// PopulateDatabase loads the schema unless the user types anything before pressing Enter.
func (p *Pipeline) PopulateDatabase(ctx context.Context) error {
	p.reporter.Text(p.reporter.Message(messages.DBCreate))
	answer, err := p.reporter.Prompt(messages.DBCreatePrompt, false)
	if err != nil {
		return err
	}
	if answer != "" {
		p.reporter.Info("loading the DB schema skipped by user")
		return nil
	}

	p.reporter.Info(fmt.Sprintf("creating the DB as specified in '%s', please wait...", config.DatabaseConfig))
	_, err = p.runner.RunOrFail(ctx, shell.CommandSpec{
		Line:  p.settings.Commands.SchemaLoad,
		Dir:   p.state.ClonePath,
		Modes: shell.VersionManagerAware,
	})
	return err
}
