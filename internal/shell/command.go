package shell

import "strings"

// Mode selects how a command line is executed. Modes combine with |.
type Mode uint8

const (
	// Silent discards the captured output; the streams are still drained and reported.
	Silent Mode = 1 << iota
	// Interactive runs the line in an interactive bash so the user's rc files are sourced.
	Interactive
	// VersionManagerAware is Interactive plus sourcing rvm and switching to the ruby environment.
	VersionManagerAware
)

// Has reports whether all flags of m2 are set in m.
func (m Mode) Has(m2 Mode) bool {
	return m&m2 == m2
}

// CommandSpec is one external command the installer wants to run.
type CommandSpec struct {
	Line  string // shell command line
	Dir   string // working directory, empty for the current one
	Modes Mode
}

// Status is the exit status of a finished command.
type Status struct {
	Code int
}

// Success reports a zero exit code.
func (s Status) Success() bool {
	return s.Code == 0
}

// Result is what a command left behind: its trimmed standard output and exit status.
type Result struct {
	Output string
	Status Status
}

// Stream identifies the pipe a line of output was read from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Invocation is a fully built command, ready to be handed to an Executor.
type Invocation struct {
	Argv []string
	Dir  string
}

// Script returns the shell script the invocation runs, which is its last argument.
func (inv Invocation) Script() string {
	if len(inv.Argv) == 0 {
		return ""
	}
	return inv.Argv[len(inv.Argv)-1]
}

// String joins the argv for display.
func (inv Invocation) String() string {
	return strings.Join(inv.Argv, " ")
}

// Quote makes s a single shell word.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
