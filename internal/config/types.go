package config

import "time"

// Settings is the complete installer configuration.
// Defaults() reproduces the values the installer has always shipped with; a YAML file
// passed via --config may override any of them.
type Settings struct {
	RepoURL   string `yaml:"repo_url"`   // git remote that gets cloned
	GitBranch string `yaml:"git_branch"` // branch checked out after clone or pull
	WikiURL   string `yaml:"wiki_url"`   // documentation link printed in help text
	IRCURL    string `yaml:"irc_url"`    // community channel printed in help text

	RubyVersion string `yaml:"ruby_version"` // runtime version rvm must switch to
	Gemset      string `yaml:"gemset"`       // named gem environment inside that runtime

	// Plain-text files holding the current ruby version and gemset.
	// When set (and not running offline) they override RubyVersion and Gemset.
	RubyVersionURL string `yaml:"ruby_version_url"`
	GemsetURL      string `yaml:"gemset_url"`

	RVMLocalPath  string `yaml:"rvm_local_path"`  // per-user rvm script
	RVMSystemPath string `yaml:"rvm_system_path"` // system-wide rvm script

	ClonePath string `yaml:"clone_path"` // suggested checkout directory

	Binaries []Binary `yaml:"binaries"` // required executables, checked in order
	Commands Commands `yaml:"commands"` // shell command lines run by the pipeline

	// CommandTimeout bounds every external command. Zero means no limit.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// Binary is one required executable.
// - Name: what the user is told to install (e.g., "rubygems").
// - Command: the executable looked up on PATH (e.g., "gem").
type Binary struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}

// Commands holds the product-specific shell command lines passed through the runner.
type Commands struct {
	BundlerCheck   string `yaml:"bundler_check"`
	BundlerInstall string `yaml:"bundler_install"`
	BundleInstall  string `yaml:"bundle_install"`
	SchemaLoad     string `yaml:"schema_load"`
	EmbeddedJS     string `yaml:"embedded_js"`
}

// Config files that are copied from their templates inside the checkout.
const (
	DatabaseConfig    = "config/database.yml"
	ApplicationConfig = "config/diaspora.yml"
	TemplateSuffix    = ".example"
	RVMRCFile         = ".rvmrc"
)

// RubyEnvironment returns the rvm selector "version@gemset", or just the version without a gemset.
func (s *Settings) RubyEnvironment() string {
	if s.Gemset == "" {
		return s.RubyVersion
	}
	return s.RubyVersion + "@" + s.Gemset
}

// RVMScript returns the rvm script to source: the per-user one when local is true, else the system one.
func (s *Settings) RVMScript(local bool) string {
	if local {
		return s.RVMLocalPath
	}
	return s.RVMSystemPath
}
