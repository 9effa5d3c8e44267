package report

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/bvgastel/crashy/symbolic"
)

// The Sentry event envelope. Field names and nesting mirror the schema the
// Sentry ingestion endpoint accepts; do not rearrange.
type sentryEvent struct {
	EventID     string            `json:"event_id"`
	Contexts    sentryContexts    `json:"contexts"`
	Tags        map[string]string `json:"tags"`
	Timestamp   int64             `json:"timestamp"`
	Platform    string            `json:"platform"`
	Logger      string            `json:"logger"`
	Release     string            `json:"release,omitempty"`
	Dist        string            `json:"dist,omitempty"`
	Environment string            `json:"environment"`
	Level       string            `json:"level"`
	ServerName  string            `json:"server_name"`
	Exception   sentryException   `json:"exception"`
	Breadcrumbs sentryBreadcrumbs `json:"breadcrumbs"`
}

type sentryContexts struct {
	OS     sentryOS     `json:"os"`
	Device sentryDevice `json:"device"`
}

type sentryOS struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sentryDevice struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
	Arch  string `json:"arch"`
}

type sentryException struct {
	Values []sentryExceptionValue `json:"values"`
}

type sentryExceptionValue struct {
	Mechanism  sentryMechanism   `json:"mechanism"`
	Type       string            `json:"type"`
	Value      string            `json:"value"`
	ThreadID   string            `json:"thread_id,omitempty"`
	Stacktrace *sentryStacktrace `json:"stacktrace,omitempty"`
	User       sentryUser        `json:"user"`
}

type sentryMechanism struct {
	Type    string                 `json:"type"`
	Handled bool                   `json:"handled"`
	Data    map[string]string      `json:"data,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

type sentryStacktrace struct {
	Frames []sentryFrame `json:"frames"`
}

type sentryFrame struct {
	Function string `json:"function"`
	Package  string `json:"package,omitempty"`
	Filename string `json:"filename,omitempty"`
	Lineno   uint32 `json:"lineno,omitempty"`
}

type sentryUser struct {
	ID       int     `json:"id"`
	Username *string `json:"username,omitempty"`
}

type sentryBreadcrumbs struct {
	Values []sentryCrumb `json:"values"`
}

type sentryCrumb struct {
	Message   string `json:"message"`
	Timestamp uint64 `json:"timestamp"`
	Level     string `json:"level,omitempty"`
}

func exceptionType(e *ExceptionCause) string {
	if e.TypeName == "" {
		return "unknown"
	}
	return symbolic.Demangle(e.TypeName)
}

// buildSentry renders the record as a single Sentry JSON event.
func buildSentry(rec *Record, cfg Config, now time.Time) string {
	sys := systemInfo()
	event := sentryEvent{
		EventID: strings.ReplaceAll(uuid.NewV4().String(), "-", ""),
		Contexts: sentryContexts{
			OS: sentryOS{
				Name:    sys.Name,
				Version: sys.Release + " " + sys.Machine,
			},
			Device: sentryDevice{
				Name:  sys.Node,
				Model: sys.Model,
				Arch:  sys.Machine,
			},
		},
		Tags: map[string]string{
			"path":        cfg.Path,
			"commandline": cfg.Command,
		},
		Timestamp:   now.Unix(),
		Platform:    "c",
		Logger:      "crashy",
		Release:     cfg.Release,
		Dist:        cfg.Dist,
		Environment: cfg.Environment,
		Level:       "fatal",
		ServerName:  sys.Node,
	}

	value := sentryExceptionValue{ThreadID: rec.Context}
	switch {
	case rec.Signal != nil:
		sig := rec.Signal
		text := SignalDescription(sig.Number)
		value.Mechanism = sentryMechanism{
			Type:    "signalhandler",
			Handled: false,
			Meta:    map[string]interface{}{"signal": map[string]uint32{"number": sig.Number}},
		}
		if faultAddressSignal(sig.Number) {
			value.Mechanism.Data = map[string]string{
				"relevant_address": fmt.Sprintf("0x%x", sig.Address),
			}
		}
		value.Type = text
		value.Value = fmt.Sprintf("%s (%d) on address 0x%x.", text, sig.Number, sig.Address)
	case rec.Exception != nil:
		display := exceptionType(rec.Exception)
		value.Mechanism = sentryMechanism{Type: "UncaughtExceptionHandler", Handled: false}
		value.Type = display
		value.Value = fmt.Sprintf("%s exception: %s.", display, rec.Exception.Description)
	case rec.Assert != nil:
		a := rec.Assert
		value.Mechanism = sentryMechanism{Type: "AssertionViolation", Handled: false}
		value.Type = "assert"
		value.Value = fmt.Sprintf("assertion %s in %s [%s:%d] violated, due to %s.",
			a.Condition, a.Function, a.File, a.Line, a.Explanation)
	}

	// frames go out outermost-first; unresolved frames carry the bare
	// function and frames with nothing to show are dropped
	var frames []sentryFrame
	for i := len(rec.Frames) - 1; i >= 0; i-- {
		f := rec.Frames[i]
		switch {
		case f.Source != "":
			frames = append(frames, sentryFrame{
				Function: f.Function,
				Package:  f.Library,
				Filename: f.Source,
				Lineno:   f.Line,
			})
		case f.Function != "":
			frames = append(frames, sentryFrame{Function: f.Function})
		}
	}
	if len(frames) > 0 {
		value.Stacktrace = &sentryStacktrace{Frames: frames}
	}

	value.User = sentryUser{ID: os.Getuid()}
	if cfg.ReportUsername {
		// consulting the password database from a crash reporter is a
		// documented risk, hence the opt-in
		if u, err := user.LookupId(strconv.Itoa(os.Getuid())); err == nil {
			value.User.Username = &u.Username
		}
	}
	event.Exception = sentryException{Values: []sentryExceptionValue{value}}

	crumbs := make([]sentryCrumb, 0, len(rec.Breadcrumbs))
	for _, c := range rec.Breadcrumbs {
		crumbs = append(crumbs, sentryCrumb{Message: c.Message, Timestamp: c.Time, Level: c.Level})
	}
	event.Breadcrumbs = sentryBreadcrumbs{Values: crumbs}

	data, err := json.Marshal(event)
	if err != nil {
		return ""
	}
	return string(data)
}
