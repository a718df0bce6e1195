package syscmd

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Sources selects which output streams are captured for pattern matching.
type Sources int

const (
	SourceStdout Sources = 1 << iota
	SourceStderr

	SourceBoth = SourceStdout | SourceStderr
)

// ParseSources accepts "stdout", "stderr" or "both". Empty means both.
func ParseSources(s string) (Sources, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return SourceBoth, nil
	case "stdout":
		return SourceStdout, nil
	case "stderr":
		return SourceStderr, nil
	default:
		return 0, fmt.Errorf("unknown pattern source %q (want stdout, stderr or both)", s)
	}
}

// Has reports whether stream is selected.
func (s Sources) Has(stream Stream) bool {
	switch stream {
	case Stdout:
		return s&SourceStdout != 0
	case Stderr:
		return s&SourceStderr != 0
	default:
		return false
	}
}

func (s Sources) String() string {
	switch s {
	case SourceStdout:
		return "stdout"
	case SourceStderr:
		return "stderr"
	case SourceBoth:
		return "both"
	default:
		return "none"
	}
}

// MatchResult is tri-state: a missing pattern is not the same as a miss.
type MatchResult int

const (
	MatchNotApplicable MatchResult = iota
	Matched
	NotMatched
)

func (m MatchResult) String() string {
	switch m {
	case Matched:
		return "matched"
	case NotMatched:
		return "not-matched"
	default:
		return "not-applicable"
	}
}

// Pattern is a compiled output pattern bound to its capture sources.
type Pattern struct {
	re      *regexp.Regexp
	sources Sources
}

// CompilePattern compiles expr. An empty expr yields a nil Pattern.
func CompilePattern(expr string, sources Sources) (*Pattern, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid output pattern: %w", err)
	}
	if sources == 0 {
		sources = SourceBoth
	}
	return &Pattern{re: re, sources: sources}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(expr string, sources Sources) *Pattern {
	p, err := CompilePattern(expr, sources)
	if err != nil {
		panic(err)
	}
	return p
}

// Match evaluates captured output. A nil Pattern is never applicable.
func (p *Pattern) Match(captured []byte) MatchResult {
	if p == nil {
		return MatchNotApplicable
	}
	if p.re.Match(captured) {
		return Matched
	}
	return NotMatched
}

// Captures reports whether output on stream feeds the matcher.
func (p *Pattern) Captures(stream Stream) bool {
	return p != nil && p.sources.Has(stream)
}

// Sources returns the configured capture sources.
func (p *Pattern) Sources() Sources {
	if p == nil {
		return 0
	}
	return p.sources
}

func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.re.String()
}

// capture accumulates output for a pattern. Writes arrive from the stdout and
// stderr copiers concurrently.
type capture struct {
	pattern *Pattern

	mu  sync.Mutex
	buf bytes.Buffer
}

func newCapture(p *Pattern) *capture {
	return &capture{pattern: p}
}

func (c *capture) write(stream Stream, chunk []byte) {
	if !c.pattern.Captures(stream) {
		return
	}
	c.mu.Lock()
	c.buf.Write(chunk)
	c.mu.Unlock()
}

// result evaluates the pattern over everything captured so far.
func (c *capture) result() (MatchResult, []byte) {
	if c.pattern == nil {
		return MatchNotApplicable, nil
	}
	c.mu.Lock()
	out := bytes.Clone(c.buf.Bytes())
	c.mu.Unlock()
	return c.pattern.Match(out), out
}
