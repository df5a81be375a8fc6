package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "develop", s.GitBranch)
	assert.Equal(t, "2.0.0-p353@diaspora", s.RubyEnvironment())
	require.Len(t, s.Binaries, 5)
	assert.Equal(t, "gem", s.Binaries[3].Command)
	assert.Equal(t, "/usr/local/rvm/scripts/rvm", s.RVMScript(false))
	assert.NotContains(t, s.RVMLocalPath, "~")
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.yaml")
	content := `
git_branch: main
gemset: ""
clone_path: /tmp/checkout
command_timeout: 90s
binaries:
  - name: git
    command: git
commands:
  schema_load: bundle exec rake db:setup
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "main", s.GitBranch)
	assert.Equal(t, "2.0.0-p353", s.RubyEnvironment())
	assert.Equal(t, "/tmp/checkout", s.ClonePath)
	assert.Equal(t, 90*time.Second, s.CommandTimeout)
	assert.Equal(t, []Binary{{Name: "git", Command: "git"}}, s.Binaries)
	assert.Equal(t, "bundle exec rake db:setup", s.Commands.SchemaLoad)
	assert.Equal(t, "bundle install", s.Commands.BundleInstall)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("binaries: [oops"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to unmarshal config")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("repo_url: \"\"\n"), 0o644))
	_, err = Load(empty)
	assert.ErrorContains(t, err, "repo_url")
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester/.rvm/scripts/rvm", ExpandHome("~/.rvm/scripts/rvm"))
	assert.Equal(t, "/home/tester", ExpandHome("~"))
	assert.Equal(t, "/usr/local/rvm", ExpandHome("/usr/local/rvm"))
	assert.Equal(t, "~other/x", ExpandHome("~other/x"))
}

func TestFetchRemoteVersions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/.ruby-version":
			_, _ = w.Write([]byte("\n2.1.5\n"))
		case "/.ruby-gemset":
			_, _ = w.Write([]byte("diaspora-next"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := Defaults()
	s.RubyVersionURL = srv.URL + "/.ruby-version"
	s.GemsetURL = srv.URL + "/.ruby-gemset"

	require.NoError(t, FetchRemoteVersions(context.Background(), srv.Client(), s))
	assert.Equal(t, "2.1.5@diaspora-next", s.RubyEnvironment())
}

func TestFetchRemoteVersionsKeepsDefaultsOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/.ruby-version" {
			_, _ = w.Write([]byte("2.1.5"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := Defaults()
	s.RubyVersionURL = srv.URL + "/.ruby-version"
	s.GemsetURL = srv.URL + "/.ruby-gemset"

	err := FetchRemoteVersions(context.Background(), srv.Client(), s)
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 500")
	assert.Equal(t, "diaspora", s.Gemset)
}

func TestFetchRemoteVersionsSkipsEmptyURLs(t *testing.T) {
	s := Defaults()
	s.RubyVersionURL = ""
	s.GemsetURL = ""

	require.NoError(t, FetchRemoteVersions(context.Background(), nil, s))
	assert.Equal(t, "2.0.0-p353@diaspora", s.RubyEnvironment())
}
