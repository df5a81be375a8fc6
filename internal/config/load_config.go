package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults returns the settings of a plain development install of the develop branch.
func Defaults() *Settings {
	return &Settings{
		RepoURL:   "https://github.com/diaspora/diaspora.git",
		GitBranch: "develop",
		WikiURL:   "https://wiki.diasporafoundation.org/",
		IRCURL:    "irc://freenode.net/diaspora",

		RubyVersion:    "2.0.0-p353",
		Gemset:         "diaspora",
		RubyVersionURL: "https://raw.githubusercontent.com/diaspora/diaspora/develop/.ruby-version",
		GemsetURL:      "https://raw.githubusercontent.com/diaspora/diaspora/develop/.ruby-gemset",

		RVMLocalPath:  "~/.rvm/scripts/rvm",
		RVMSystemPath: "/usr/local/rvm/scripts/rvm",

		ClonePath: "/srv/diaspora",

		Binaries: []Binary{
			{Name: "bash", Command: "bash"},
			{Name: "git", Command: "git"},
			{Name: "ruby", Command: "ruby"},
			{Name: "rubygems", Command: "gem"},
			{Name: "redis", Command: "redis-server"},
		},
		Commands: Commands{
			BundlerCheck:   "gem which bundler",
			BundlerInstall: "gem install bundler",
			BundleInstall:  "bundle install",
			SchemaLoad:     "bundle exec rake db:schema:load_if_ruby --trace",
			EmbeddedJS:     `ruby -e 'require "v8"'`,
		},
	}
}

// Load returns the default settings overlaid with the YAML file at path.
// An empty path yields the defaults. Keys missing from the file keep their default value.
func Load(path string) (*Settings, error) {
	s := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	s.RVMLocalPath = ExpandHome(s.RVMLocalPath)
	s.RVMSystemPath = ExpandHome(s.RVMSystemPath)
	s.ClonePath = ExpandHome(s.ClonePath)
	return s, nil
}

func (s *Settings) validate() error {
	if s.RepoURL == "" {
		return fmt.Errorf("config: repo_url must not be empty")
	}
	if s.GitBranch == "" {
		return fmt.Errorf("config: git_branch must not be empty")
	}
	if s.RubyVersion == "" {
		return fmt.Errorf("config: ruby_version must not be empty")
	}
	for i, b := range s.Binaries {
		if b.Command == "" {
			return fmt.Errorf("config: binaries[%d] has no command", i)
		}
	}
	if s.CommandTimeout < 0 {
		return fmt.Errorf("config: command_timeout must not be negative")
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
// Paths without the prefix, or when HOME is unknown, are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
