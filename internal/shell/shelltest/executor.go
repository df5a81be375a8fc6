// Package shelltest provides a scripted shell.Executor for tests.
package shelltest

import (
	"context"
	"strings"

	"diaspora-setup/internal/shell"
)

// Rule answers every invocation whose script contains Match.
type Rule struct {
	Match  string
	Stdout []string
	Stderr []string
	Code   int
	Do     func(inv shell.Invocation) // side effect, e.g. creating files a clone would create
}

// Executor replies to invocations from its rules; the first matching rule wins and
// unmatched invocations succeed without output. Every invocation is recorded.
type Executor struct {
	Rules []*Rule
	Calls []shell.Invocation
}

// On adds a rule and returns it for further setup.
func (e *Executor) On(match string) *Rule {
	r := &Rule{Match: match}
	e.Rules = append(e.Rules, r)
	return r
}

// Fail makes invocations matching match exit with status 1.
func (e *Executor) Fail(match string) *Rule {
	r := e.On(match)
	r.Code = 1
	return r
}

// Reply makes invocations matching match print stdout lines and succeed.
func (e *Executor) Reply(match string, stdout ...string) *Rule {
	r := e.On(match)
	r.Stdout = stdout
	return r
}

// Execute implements shell.Executor.
func (e *Executor) Execute(_ context.Context, inv shell.Invocation, onLine func(shell.Stream, string)) (int, error) {
	e.Calls = append(e.Calls, inv)

	for _, r := range e.Rules {
		if !strings.Contains(inv.Script(), r.Match) {
			continue
		}
		if r.Do != nil {
			r.Do(inv)
		}
		for _, line := range r.Stdout {
			onLine(shell.Stdout, line)
		}
		for _, line := range r.Stderr {
			onLine(shell.Stderr, line)
		}
		return r.Code, nil
	}
	return 0, nil
}

// Scripts returns the scripts of all recorded invocations, in order.
func (e *Executor) Scripts() []string {
	scripts := make([]string, 0, len(e.Calls))
	for _, inv := range e.Calls {
		scripts = append(scripts, inv.Script())
	}
	return scripts
}

// Ran reports whether any recorded script contains match.
func (e *Executor) Ran(match string) bool {
	return e.Count(match) > 0
}

// Count returns how many recorded scripts contain match.
func (e *Executor) Count(match string) int {
	n := 0
	for _, script := range e.Scripts() {
		if strings.Contains(script, match) {
			n++
		}
	}
	return n
}
