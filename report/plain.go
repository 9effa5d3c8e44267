package report

import (
	"fmt"
	"strings"
	"time"
)

// buildPlain renders the human-readable payload handed to the sender.
func buildPlain(rec *Record, cfg Config, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== CRASH ===  [%s]\n", now.Format("2006-01-02 15:04:05 -0700"))

	switch {
	case rec.Signal != nil:
		fmt.Fprintf(&b, "%s (%d) on address 0x%x.\n",
			SignalDescription(rec.Signal.Number), rec.Signal.Number, rec.Signal.Address)
	case rec.Exception != nil:
		fmt.Fprintf(&b, "%s exception: %s.\n", exceptionType(rec.Exception), rec.Exception.Description)
	case rec.Assert != nil:
		a := rec.Assert
		fmt.Fprintf(&b, "Assertion violation in %s [%s:%d]: %s.\n", a.Function, a.File, a.Line, a.Condition)
		if a.Explanation != "" {
			fmt.Fprintf(&b, "This is due to %s.\n", a.Explanation)
		}
	}

	for _, f := range rec.Frames {
		switch {
		case f.Source != "":
			fmt.Fprintf(&b, "  at %s [%s:%d]\n", f.Function, f.Source, f.Line)
		case f.Function != "":
			fmt.Fprintf(&b, "  at %s\n", f.Function)
		default:
			b.WriteString("  at (unknown)\n")
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Command: %s\n", cfg.Command)
	fmt.Fprintf(&b, "   Path: %s\n", cfg.Path)
	b.WriteString("\n")

	for _, c := range rec.Breadcrumbs {
		stamp := time.Unix(int64(c.Time), 0).Format("2006-01-02 15:04:05")
		pad := levelSpacing[min(len(levelSpacing), len(c.Level)):]
		fmt.Fprintf(&b, "%s%s [%s] %s\n", stamp, pad, c.Level, c.Message)
	}
	return b.String()
}
