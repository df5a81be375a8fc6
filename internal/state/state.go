package state

// Verbosity is the console threshold chosen on the command line.
// Lower values admit more output: Verbose shows everything, Info only the default messages.
type Verbosity int

const (
	Verbose Verbosity = iota // raw command output and command echoing
	Debug                    // debug messages, no raw command output
	Info                     // default
)

// String returns the flag-style name of the verbosity.
func (v Verbosity) String() string {
	switch v {
	case Verbose:
		return "verbose"
	case Debug:
		return "debug"
	default:
		return "info"
	}
}

// RunState holds everything the installer learns or is told during a single run.
// It is created once at startup and passed by reference to every component.
// Command line parsing, the preflight checks and the repository step write to it; nothing is persisted.
type RunState struct {
	Verbosity Verbosity // console threshold

	RVMFound        bool // rvm loads as a shell function
	RVMSourceLocal  bool // rvm script found under $HOME
	RVMSourceSystem bool // rvm script found in the system-wide location
	GemsetActive    bool // the gemset could be used or was created
	JSRuntimeFound  bool // node/nodejs or therubyracer available

	Headless  bool // answer every prompt with its default instead of reading input
	AllowRoot bool // skip the root-user guard

	ClonePath string // checkout directory chosen by the user
}

// New returns the initial state for a run, with the default verbosity and checkout path.
func New(defaultClonePath string) *RunState {
	return &RunState{
		Verbosity: Info,
		ClonePath: defaultClonePath,
	}
}

// Admits reports whether messages at the given verbosity should be printed.
func (s *RunState) Admits(v Verbosity) bool {
	return s.Verbosity <= v
}

// RVMScriptSourced reports whether any rvm script location was detected.
func (s *RunState) RVMScriptSourced() bool {
	return s.RVMSourceLocal || s.RVMSourceSystem
}
