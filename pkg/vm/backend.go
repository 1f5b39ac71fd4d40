package vm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Backend is the VM's abstract I/O sink: stdout for print, stdin for
// input, and a trace channel, the capability graft models as an
// Evaluator-adjacent I/O boundary crossed at a single point.
type Backend interface {
	Print(s string) error
	ReadLine(prompt string) (string, error)
	Trace(ev TraceEvent)
}

// StdBackend writes to real stdout and reads from real stdin.
type StdBackend struct {
	Out      io.Writer
	In       *bufio.Reader
	TraceOut io.Writer
	reader   *bufio.Reader
}

// NewStdBackend builds a Backend around the given streams.
func NewStdBackend(out io.Writer, in io.Reader, traceOut io.Writer) *StdBackend {
	return &StdBackend{Out: out, reader: bufio.NewReader(in), TraceOut: traceOut}
}

func (b *StdBackend) Print(s string) error {
	_, err := fmt.Fprint(b.Out, s)
	return err
}

func (b *StdBackend) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(b.Out, prompt)
	}
	line, err := b.reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (b *StdBackend) Trace(ev TraceEvent) {
	if b.TraceOut == nil {
		return
	}
	fmt.Fprintln(b.TraceOut, ev.NDJSON())
}

// QuietBackend discards every print and trace write; used for
// benchmarking and for tests that only care about return values.
type QuietBackend struct {
	scripted *ScriptedInput
}

// NewQuietBackend builds a backend with no stdin script configured;
// any input call fails with io.EOF.
func NewQuietBackend() *QuietBackend { return &QuietBackend{} }

func (q *QuietBackend) Print(string) error { return nil }

func (q *QuietBackend) ReadLine(prompt string) (string, error) {
	if q.scripted != nil {
		return q.scripted.Next()
	}
	return "", io.EOF
}

func (q *QuietBackend) Trace(TraceEvent) {}

// ScriptedInput replays a fixed sequence of lines for `input`,
// independent of any prompt text. It is shared between QuietBackend
// and RecordingBackend so tests can script stdin deterministically.
type ScriptedInput struct {
	lines []string
	pos   int
}

// NewScriptedInput builds a stdin script from a list of lines.
func NewScriptedInput(lines []string) *ScriptedInput {
	return &ScriptedInput{lines: lines}
}

// Next returns the next scripted line, or io.EOF once exhausted.
func (s *ScriptedInput) Next() (string, error) {
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return line, nil
}

// WithScript attaches a stdin script to a QuietBackend, returning it
// for chaining.
func (q *QuietBackend) WithScript(lines []string) *QuietBackend {
	q.scripted = NewScriptedInput(lines)
	return q
}

// RecordingBackend captures stdout and trace events in memory; it is
// the backend used by the VM's and trace sink's tests, which need the
// output without a real terminal.
type RecordingBackend struct {
	Stdout   strings.Builder
	Events   []TraceEvent
	scripted *ScriptedInput
}

// NewRecordingBackend builds a recording backend, optionally scripted.
func NewRecordingBackend(scriptLines []string) *RecordingBackend {
	b := &RecordingBackend{}
	if scriptLines != nil {
		b.scripted = NewScriptedInput(scriptLines)
	}
	return b
}

func (r *RecordingBackend) Print(s string) error {
	r.Stdout.WriteString(s)
	return nil
}

func (r *RecordingBackend) ReadLine(prompt string) (string, error) {
	if r.scripted == nil {
		return "", io.EOF
	}
	return r.scripted.Next()
}

func (r *RecordingBackend) Trace(ev TraceEvent) {
	r.Events = append(r.Events, ev)
}
