package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"diaspora-setup/internal/messages"
	"diaspora-setup/internal/state"
)

// Level is the severity of a console line. LevelText marks level-less, emphasized text.
type Level int

const (
	LevelText Level = iota
	LevelVerbose
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelVerbose: "verbose",
	LevelDebug:   "debug",
	LevelInfo:    "info",
	LevelWarn:    "warn",
	LevelError:   "error",
	LevelFatal:   "fatal",
}

// String returns the name printed in the level tag.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "text"
}

const (
	levelWidth = 70 // wrap width of leveled lines
	textWidth  = 82 // wrap width of level-less text
	tagWidth   = 7  // width of the level name inside the brackets

	placeholder = "."
	promptGlyph = "  >> "

	cursorUp  = "\x1b[1A"
	eraseLine = "\x1b[K"
)

// lastMessage remembers the most recent console line so it can be amended in place.
type lastMessage struct {
	valid bool
	text  string
	level Level
	lines int // physical lines the message occupied after wrapping
}

// continuable reports whether placeholder dots may be appended to this line.
func (m lastMessage) continuable() bool {
	if !m.valid {
		return false
	}
	switch m.level {
	case LevelVerbose, LevelDebug, LevelInfo:
		return true
	}
	return false
}

// Reporter prints leveled, wrapped and (on terminals) colorized status lines, and reads
// answers to prompts. All output of a run goes through one Reporter.
type Reporter struct {
	out io.Writer
	in  *bufio.Reader

	inFile      *os.File
	interactive *bool // overrides terminal detection of the input
	openTTY     func() (*os.File, error)

	terminal bool // output is a terminal: colors and in-place amending
	st       *state.RunState
	cat      *messages.Catalog

	last    lastMessage
	pending string // rendered last line, held back on non-terminals until it is final
	styles  styles
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithTerminal forces output terminal detection on or off.
func WithTerminal(terminal bool) Option {
	return func(r *Reporter) { r.terminal = terminal }
}

// WithInteractiveInput forces input terminal detection on or off. No reattach to /dev/tty is
// attempted when it is set.
func WithInteractiveInput(interactive bool) Option {
	return func(r *Reporter) { r.interactive = &interactive }
}

// WithTTYOpener replaces how the controlling terminal is reopened for input.
func WithTTYOpener(open func() (*os.File, error)) Option {
	return func(r *Reporter) { r.openTTY = open }
}

// New returns a Reporter writing to out and reading prompt answers from in.
// Terminal detection is done on out and in when they are files.
func New(out io.Writer, in io.Reader, st *state.RunState, cat *messages.Catalog, opts ...Option) *Reporter {
	r := &Reporter{
		out:     out,
		in:      bufio.NewReader(in),
		st:      st,
		cat:     cat,
		openTTY: func() (*os.File, error) { return os.Open("/dev/tty") },
	}
	if f, ok := in.(*os.File); ok {
		r.inFile = f
	}
	if f, ok := out.(*os.File); ok {
		r.terminal = isTerminal(f)
	}

	for _, opt := range opts {
		opt(r)
	}

	r.styles = newStyles(r.terminal)
	return r
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Message returns the rendered catalog entry.
func (r *Reporter) Message(id messages.ID) string {
	return r.cat.Get(id)
}

// Emit prints text at level. Multi-line text is printed line by line; lines longer than the
// wrap width continue on muted lines.
func (r *Reporter) Emit(level Level, text string) {
	if strings.Contains(text, "\n") {
		for _, line := range strings.Split(text, "\n") {
			r.Emit(level, line)
		}
		return
	}

	width := levelWidth
	if level == LevelText {
		width = textWidth
	}
	chunks := wrap(text, width)

	// whatever was held back is final now
	r.Flush()

	var b strings.Builder
	b.WriteString(r.styles.format(level, chunks[0]) + "\n")
	for _, chunk := range chunks[1:] {
		b.WriteString(r.styles.continuation(level, chunk) + "\n")
	}
	r.last = lastMessage{valid: true, text: text, level: level, lines: len(chunks)}

	// piped output cannot be rewritten, so a line that may still be amended waits
	if !r.terminal && r.last.continuable() {
		r.pending = b.String()
		return
	}
	io.WriteString(r.out, b.String())
}

// Flush writes the line held back for amending, if any. Call it before the run ends.
func (r *Reporter) Flush() {
	if r.pending == "" {
		return
	}
	io.WriteString(r.out, r.pending)
	r.pending = ""
}

// Text prints level-less text framed by blank lines, the way catalog blocks are shown.
func (r *Reporter) Text(text string) {
	r.Emit(LevelText, "\n"+text+"\n")
}

// Info prints an info line.
func (r *Reporter) Info(text string) { r.Emit(LevelInfo, text) }

// Warn prints a warning line.
func (r *Reporter) Warn(text string) { r.Emit(LevelWarn, text) }

// Error prints an error line.
func (r *Reporter) Error(text string) { r.Emit(LevelError, text) }

// Debug prints text when debug output is enabled, and a progress dot otherwise.
func (r *Reporter) Debug(text string) {
	r.gated(state.Debug, LevelDebug, text)
}

// Verbose prints text when verbose output is enabled, and a progress dot otherwise.
func (r *Reporter) Verbose(text string) {
	r.gated(state.Verbose, LevelVerbose, text)
}

func (r *Reporter) gated(v state.Verbosity, level Level, text string) {
	if r.st.Admits(v) {
		r.Emit(level, text)
		return
	}
	r.placeholder()
}

// placeholder shows liveness for suppressed output by adding a dot to the previous line.
func (r *Reporter) placeholder() {
	if r.last.continuable() {
		r.amend(r.last.text + placeholder)
		return
	}
	r.Emit(LevelInfo, placeholder)
}

// Append rewrites the previous line with suffix added, e.g. "checking for git... found".
func (r *Reporter) Append(suffix string) {
	if !r.last.valid {
		r.Emit(LevelInfo, suffix)
		return
	}
	r.amend(r.last.text + " " + suffix)
}

// amend replaces the previous line with text at the same level. On terminals the line is
// erased; otherwise a held back line is dropped, and a line already written stays.
func (r *Reporter) amend(text string) {
	level := r.last.level
	if r.terminal {
		// move up over every physical line of the message and clear it
		var b strings.Builder
		b.WriteString("\r")
		for i := 0; i < r.last.lines; i++ {
			b.WriteString(cursorUp + eraseLine)
		}
		fmt.Fprint(r.out, b.String())
	} else {
		r.pending = ""
	}
	r.Emit(level, text)
}

// Fatal prints text at the fatal level followed by where to get help, and returns the
// error that ends the run. Callers return it unchanged.
func (r *Reporter) Fatal(text string) error {
	r.Emit(LevelFatal, text)
	r.Emit(LevelText, r.cat.Get(messages.LookWiki))
	r.Emit(LevelText, r.cat.Get(messages.JoinIRC))
	if !r.st.Admits(state.Debug) {
		r.Emit(LevelText, r.cat.Get(messages.RerunVerbose))
	}
	return &FatalError{Message: text}
}

// EnsureInteractive makes sure prompt answers come from a terminal, reattaching to the
// controlling terminal when the input was redirected.
func (r *Reporter) EnsureInteractive() error {
	if r.inputIsTerminal() {
		return nil
	}
	if r.interactive == nil {
		if f, err := r.openTTY(); err == nil {
			r.inFile = f
			r.in = bufio.NewReader(f)
		}
	}
	if !r.inputIsTerminal() {
		return r.Fatal(r.cat.Get(messages.NotInteractive))
	}
	return nil
}

func (r *Reporter) inputIsTerminal() bool {
	if r.interactive != nil {
		return *r.interactive
	}
	return r.inFile != nil && isTerminal(r.inFile)
}

// Prompt optionally prints the catalog message id (none for messages.None) and a prompt
// glyph, then reads one line of input and returns it trimmed. In headless mode it returns
// "" at once.
func (r *Reporter) Prompt(id messages.ID, showPrompt bool) (string, error) {
	if r.st.Headless {
		return "", nil
	}
	if err := r.EnsureInteractive(); err != nil {
		return "", err
	}

	if id != messages.None {
		r.Emit(LevelInfo, r.cat.Get(id))
	}
	// the question must be visible before blocking on the answer
	r.Flush()
	if showPrompt {
		fmt.Fprint(r.out, r.styles.prompt.Sprint(promptGlyph))
	}

	line, err := r.in.ReadString('\n')
	// the answer moved the cursor, nothing above may be amended anymore
	r.last = lastMessage{}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// wrap splits text into chunks of at most width runes. It always returns at least one chunk.
func wrap(text string, width int) []string {
	runes := []rune(text)
	if len(runes) <= width {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/width+1)
	for len(runes) > width {
		chunks = append(chunks, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// FatalError ends the run with a non-zero exit status. Its message has already been printed.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string {
	return e.Message
}

// IsFatal reports whether err is, or wraps, a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
