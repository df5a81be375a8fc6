package main

import (
	"diaspora-setup/cmd"
)

// main delegates to cmd.Execute(), which parses the flags, runs the installer and exits
// with its status.
//
// diaspora-setup prepares a diaspora* development environment:
//   - checks for the required binaries, rvm with the right ruby and gemset, a JavaScript
//     runtime and bundler
//   - clones the repository, or brings an existing checkout up to date
//   - creates config/database.yml and config/diaspora.yml from their templates
//   - installs the gems and loads the database schema
//
// Every step that needs the user waits for [Enter]; --headless answers all of them with
// the defaults. Any fatal condition ends the run with exit status 1.
func main() {
	cmd.Execute()
}
