package planserialize

import (
	"fmt"
	"strings"
)

// Debug renders the plan as an indented human-readable tree, the form a
// developer sees in `router plan` output.
func (p Plan) Debug() string {
	w := &debugWriter{}
	p.Node.debug(w)
	return w.sb.String()
}

type debugWriter struct {
	sb    strings.Builder
	depth int
}

func (w *debugWriter) line(format string, args ...any) {
	w.sb.WriteString(strings.Repeat("  ", w.depth))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *debugWriter) indented(f func()) {
	w.depth++
	f()
	w.depth--
}

func (s Sequence) debug(w *debugWriter) {
	w.line("Sequence {")
	w.indented(func() {
		for _, n := range s.Nodes {
			n.debug(w)
		}
	})
	w.line("}")
}

func (p Parallel) debug(w *debugWriter) {
	w.line("Parallel {")
	w.indented(func() {
		for _, n := range p.Nodes {
			n.debug(w)
		}
	})
	w.line("}")
}

func (f Fetch) debug(w *debugWriter) {
	w.line("Fetch(service: %q, kind: %s) {", f.ServiceName, f.OperationKind)
	w.indented(func() {
		w.line("%s", f.Operation)
		if len(f.VariableUsages) > 0 {
			w.line("variableUsages: %v", f.VariableUsages)
		}
	})
	w.line("}")
}

func (f Flatten) debug(w *debugWriter) {
	w.line("Flatten(path: %v) {", f.Path)
	w.indented(func() {
		f.Node.debug(w)
	})
	w.line("}")
}
