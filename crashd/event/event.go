// Package event models the crash envelope crashd ingests, the JSON the
// reporter sidecar emits.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Mechanism struct {
	Type    string                 `json:"type"`
	Handled bool                   `json:"handled"`
	Data    map[string]string      `json:"data,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

type Frame struct {
	Function string `json:"function"`
	Package  string `json:"package,omitempty"`
	Filename string `json:"filename,omitempty"`
	Lineno   uint32 `json:"lineno,omitempty"`
}

type Stacktrace struct {
	Frames []Frame `json:"frames"`
}

type User struct {
	Id       int    `json:"id"`
	Username string `json:"username,omitempty"`
}

type ExceptionValue struct {
	Mechanism  Mechanism   `json:"mechanism"`
	Type       string      `json:"type"`
	Value      string      `json:"value"`
	ThreadId   string      `json:"thread_id,omitempty"`
	Stacktrace *Stacktrace `json:"stacktrace,omitempty"`
	User       User        `json:"user"`
}

type Exception struct {
	Values []ExceptionValue `json:"values"`
}

type Crumb struct {
	Message   string `json:"message"`
	Timestamp uint64 `json:"timestamp"`
	Level     string `json:"level,omitempty"`
}

type Breadcrumbs struct {
	Values []Crumb `json:"values"`
}

type OSContext struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type DeviceContext struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
	Arch  string `json:"arch"`
}

type Contexts struct {
	OS     OSContext     `json:"os"`
	Device DeviceContext `json:"device"`
}

type Event struct {
	EventId     string            `json:"event_id"`
	Contexts    Contexts          `json:"contexts"`
	Tags        map[string]string `json:"tags"`
	Timestamp   int64             `json:"timestamp"`
	Platform    string            `json:"platform"`
	Logger      string            `json:"logger"`
	Release     string            `json:"release,omitempty"`
	Dist        string            `json:"dist,omitempty"`
	Environment string            `json:"environment"`
	Level       string            `json:"level"`
	ServerName  string            `json:"server_name"`
	Exception   Exception         `json:"exception"`
	Breadcrumbs Breadcrumbs       `json:"breadcrumbs"`
}

func FromJson(data []byte) *Event {
	var e Event
	err := json.Unmarshal(data, &e)
	if err != nil {
		log.WithError(err).Error("Can't parse crash event")
		return nil
	}
	if e.EventId == "" {
		log.Error("Crash event without event_id")
		return nil
	}
	return &e
}

// CrashingFrames returns the frames innermost-first; the wire order is
// outermost-first.
func (e *Event) CrashingFrames() []Frame {
	if len(e.Exception.Values) == 0 || e.Exception.Values[0].Stacktrace == nil {
		return nil
	}
	frames := e.Exception.Values[0].Stacktrace.Frames
	reversed := make([]Frame, len(frames))
	for i, f := range frames {
		reversed[len(frames)-1-i] = f
	}
	return reversed
}

// CrashType is the mechanism that produced the event.
func (e *Event) CrashType() string {
	if len(e.Exception.Values) == 0 {
		return ""
	}
	return e.Exception.Values[0].Mechanism.Type
}

// Address is the fault address for signal events, empty otherwise.
func (e *Event) Address() string {
	if len(e.Exception.Values) == 0 {
		return ""
	}
	return e.Exception.Values[0].Mechanism.Data["relevant_address"]
}

// Report is a stored crash event plus the fields crashd derives.
type Report struct {
	Event
	Signature string `json:"signature"`
	Source    string `json:"source"`
	CrashKind string `json:"crash_type"`
	DateAdded string `json:"date_added"`
}

func NewReport(e *Event) *Report {
	return &Report{
		Event:     *e,
		CrashKind: e.CrashType(),
		DateAdded: time.Now().Format(time.RFC3339),
	}
}

// SourceOf renders a frame's location the way signatures reference it.
func SourceOf(f Frame) string {
	return fmt.Sprintf("%s:%d", f.Filename, f.Lineno)
}
