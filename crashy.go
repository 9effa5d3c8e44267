// Package crashy turns fatal program failures into structured crash
// reports. At startup the host installs the handlers and a reporter sidecar
// is spawned; when the program faults, panics without recovery or violates
// an assertion, the crash machinery streams a binary record over a pipe to
// the sidecar, which symbolicates and dispatches it before the crashed
// process aborts.
package crashy

import (
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/bvgastel/crashy/report"
	"github.com/bvgastel/crashy/symbolic"
)

// SendFormat selects how the reporter renders the final payload.
type SendFormat = report.SendFormat

const (
	SendNone       = report.SendNone
	SendPlainText  = report.SendPlainText
	SendJSONSentry = report.SendJSONSentry
)

// Breadcrumb is one host log entry captured ahead of the crash. The message
// is bounded on the wire; bytes past the cap are dropped, and the cut may
// fall inside a multi-byte character.
type Breadcrumb struct {
	Level   string
	Time    uint64
	Message []byte
}

// Options configures the crash machinery. The host constructs it once and
// hands it to GenerateDumpOnCrash; afterwards the reporter process owns it.
// Only the context, breadcrumb and panic-conversion callbacks are consulted
// from the fault path of the crashing process.
type Options struct {
	// CurrentExecutable is the path of the running binary; derived from
	// the command line when left empty.
	CurrentExecutable string

	SendFormat SendFormat

	// Prepare runs in the reporter before it blocks on the pipe.
	Prepare func(SendFormat)
	// Sender delivers the formatted payload; returning false is logged
	// as a warning. When nil the payload goes to standard error.
	Sender func(SendFormat, string) bool

	// GetContext names the logical executor (goroutine pool, job, actor)
	// the crash happened in.
	GetContext func() string
	// GetBreadcrumbs is called repeatedly until ok is false.
	GetBreadcrumbs func() (crumb Breadcrumb, ok bool)
	// ConvertPanic renders a recovered panic value into a human string.
	ConvertPanic func(recovered interface{}) string

	Release     string // suggestion: git revision
	Dist        string // distribution, e.g. a pipeline iteration
	Environment string // defaults to "local"

	Command string
	Path    string

	// ReportUsername consults the password database from the reporter.
	// Known to be risky in a crashed process tree, hence opt-in.
	ReportUsername bool
}

// SetCommandLine records the quoted command line and derives the executable
// from args[0].
func (o *Options) SetCommandLine(args []string) {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = strconv.Quote(a)
	}
	o.Command = strings.Join(quoted, " ")
	if len(args) > 0 {
		o.CurrentExecutable = args[0]
	}
}

// Process-wide crash state. Everything here is written once during
// GenerateDumpOnCrash, before the handlers become reachable; only the
// assertion re-entry flag mutates afterwards.
var (
	crashOptions      Options
	currentExecutable string
	loadBias          uint64
)

// SetCurrentExecutable resolves and pins the canonical executable path used
// for symbolication, returning the resolved path.
func SetCurrentExecutable(executable string) string {
	currentExecutable = symbolic.CurrentExecutable(executable)
	return currentExecutable
}

// GetCurrentExecutable returns the path pinned by SetCurrentExecutable.
func GetCurrentExecutable() string {
	return currentExecutable
}

func reporterConfig(o Options) report.Config {
	return report.Config{
		Format:            o.SendFormat,
		Prepare:           o.Prepare,
		Sender:            o.Sender,
		Release:           o.Release,
		Dist:              o.Dist,
		Environment:       o.Environment,
		Command:           o.Command,
		Path:              o.Path,
		CurrentExecutable: o.CurrentExecutable,
		ReportUsername:    o.ReportUsername,
	}
}

// GenerateDumpOnCrash installs the fault handlers and spawns the reporter
// sidecar. Call it early in main, after Options is fully populated: the
// sidecar re-executes the program, and the second execution must reach this
// call with the same options to become the reporter.
func GenerateDumpOnCrash(options Options) {
	if options.Environment == "" {
		options.Environment = "local"
	}
	options.CurrentExecutable = SetCurrentExecutable(options.CurrentExecutable)

	if runningAsReporter() {
		report.Run(reporterPipe(), reporterConfig(options))
		os.Exit(0)
	}

	loadBias = computeLoadBias(currentExecutable)
	if err := startReporter(); err != nil {
		log.WithError(err).Error("Can't start crash reporter, falling back to stderr")
	}
	crashOptions = options
	installHandlers()
}
