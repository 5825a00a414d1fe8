package game

import "fmt"

// Report is the one-way message sink executors write transaction lines to.
// The supervisor clears it at the start of every Process call; whatever is
// left afterwards belongs to that action.
type Report struct {
	lines []string
}

// Add appends a formatted line.
func (r *Report) Add(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// Lines returns the buffered lines.
func (r *Report) Lines() []string {
	return r.lines
}

// Clear drops all buffered lines.
func (r *Report) Clear() {
	r.lines = r.lines[:0]
}

func (r *Report) clone() *Report {
	cp := &Report{lines: make([]string, len(r.lines))}
	copy(cp.lines, r.lines)
	return cp
}
