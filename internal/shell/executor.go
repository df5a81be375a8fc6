package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// exitNotStarted is reported when the process could not be started, like a shell does
// for a missing command.
const exitNotStarted = 127

// Executor starts a process and feeds every line it prints to onLine.
// onLine is always called from the goroutine that called Execute.
// A non-nil error means the process did not start or was cut short; the exit code is
// non-zero then.
type Executor interface {
	Execute(ctx context.Context, inv Invocation, onLine func(Stream, string)) (int, error)
}

// OSExecutor runs invocations as child processes.
type OSExecutor struct{}

type outputLine struct {
	stream Stream
	text   string
}

// Execute implements Executor. Both pipes are read to the end before the process is
// waited for, so a child filling one of them never blocks.
func (OSExecutor) Execute(ctx context.Context, inv Invocation, onLine func(Stream, string)) (int, error) {
	if len(inv.Argv) == 0 {
		return exitNotStarted, errors.New("empty command")
	}

	// The context kills the process on timeout or interrupt
	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	cmd.Dir = inv.Dir

	// Pipes must exist before Start
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return exitNotStarted, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return exitNotStarted, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return exitNotStarted, fmt.Errorf("failed to start %s: %w", inv.Argv[0], err)
	}

	// One reader per pipe, both feeding a single channel that closes after EOF on each
	lines := make(chan outputLine)
	var wg sync.WaitGroup
	wg.Add(2)
	go readLines(stdout, Stdout, lines, &wg)
	go readLines(stderr, Stderr, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	// Deliver lines on the caller's goroutine
	for l := range lines {
		onLine(l.stream, l.text)
	}

	// Both pipes are drained, Wait cannot block on a full pipe now
	err = cmd.Wait()
	if err == nil {
		return 0, nil
	}

	// A non-zero exit is a normal result; only kills and wait failures are errors
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nonZero(code), fmt.Errorf("%s: %w", inv.Argv[0], ctxErr)
		}
		if code < 0 {
			// killed by a signal
			return 1, fmt.Errorf("%s: %w", inv.Argv[0], err)
		}
		return code, nil
	}
	return 1, fmt.Errorf("waiting for %s: %w", inv.Argv[0], err)
}

func nonZero(code int) int {
	if code <= 0 {
		return 1
	}
	return code
}

// readLines sends every line of r to lines until EOF. Lines are not length limited.
func readLines(r io.Reader, stream Stream, lines chan<- outputLine, wg *sync.WaitGroup) {
	defer wg.Done()

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines <- outputLine{stream: stream, text: strings.TrimRight(line, "\r\n")}
		}
		if err != nil {
			return
		}
	}
}
