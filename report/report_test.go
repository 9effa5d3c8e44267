package report

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bvgastel/crashy/symbolic"
	"github.com/bvgastel/crashy/wire"
)

func quietPrinter() *printer {
	return &printer{out: io.Discard, tty: false}
}

func testConfig() Config {
	return Config{
		Format:            SendJSONSentry,
		Release:           "rev-123",
		Dist:              "47",
		Environment:       "staging",
		Command:           `"./tester" "3"`,
		Path:              "/work",
		CurrentExecutable: "/nonexistent/tester",
	}
}

func assertStream(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	w.Tag(wire.Start)
	w.Tag(wire.Assert)
	w.String("bar")
	w.String("tester.cpp")
	w.Uint32(27)
	w.String("false")
	w.String("")
	w.Tag(wire.Library)
	w.String("main.bar")
	w.String("/nonexistent/tester")
	w.Uint32(0x1234)
	w.Uint64(0x401234)
	w.Tag(wire.PC)
	w.Uint64(0x400999)
	w.Tag(wire.Context)
	w.String("my-context")
	w.Tag(wire.Breadcrumb)
	w.String("error")
	w.Uint64(42)
	w.BreadcrumbMessage([]byte("breadcrumb 0"))
	w.Tag(wire.Breadcrumb)
	w.String("info")
	w.Uint64(37)
	w.BreadcrumbMessage([]byte("breadcrumb 1"))
	w.Tag(wire.Finish)
	return buf.Bytes()
}

func TestParseMaterializesRecord(t *testing.T) {
	rec, ok := parse(bytes.NewReader(assertStream(t)), testConfig(), quietPrinter(), time.Now())
	require.True(t, ok)
	require.NotNil(t, rec.Assert)
	assert.Nil(t, rec.Signal)
	assert.Nil(t, rec.Exception)

	assert.Equal(t, "bar", rec.Assert.Function)
	assert.Equal(t, "tester.cpp", rec.Assert.File)
	assert.Equal(t, uint32(27), rec.Assert.Line)
	assert.Equal(t, "false", rec.Assert.Condition)

	require.Len(t, rec.Frames, 2)
	assert.Equal(t, "main.bar", rec.Frames[0].Function)
	assert.Equal(t, "my-context", rec.Context)

	require.Len(t, rec.Breadcrumbs, 2)
	assert.Equal(t, Crumb{Level: "error", Time: 42, Message: "breadcrumb 0"}, rec.Breadcrumbs[0])
	assert.Equal(t, Crumb{Level: "info", Time: 37, Message: "breadcrumb 1"}, rec.Breadcrumbs[1])
}

func TestParseDiscardsTruncatedStreams(t *testing.T) {
	stream := assertStream(t)
	// cut everywhere before the FINISH tag: never a record
	for cut := 0; cut < len(stream)-4; cut++ {
		rec, ok := parse(bytes.NewReader(stream[:cut]), testConfig(), quietPrinter(), time.Now())
		assert.False(t, ok, "cut at %d", cut)
		assert.Nil(t, rec)
	}
}

func TestParseRequiresStartFirst(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	w.Tag(wire.Finish)
	rec, ok := parse(&buf, testConfig(), quietPrinter(), time.Now())
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestParseRejectsUnknownTag(t *testing.T) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	w.Tag(wire.Start)
	w.Uint32(999)
	rec, ok := parse(&buf, testConfig(), quietPrinter(), time.Now())
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func decodeEvent(t *testing.T, payload string) map[string]interface{} {
	t.Helper()
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	return event
}

func exceptionValue(t *testing.T, event map[string]interface{}) map[string]interface{} {
	t.Helper()
	values := event["exception"].(map[string]interface{})["values"].([]interface{})
	require.Len(t, values, 1)
	return values[0].(map[string]interface{})
}

func TestSentrySignalEvent(t *testing.T) {
	rec := &Record{
		Signal:  &SignalCause{Number: uint32(syscall.SIGSEGV), Address: 0x42},
		Context: "my-context",
		Frames: []symbolic.Frame{
			{Function: "main.crash", Library: "/work/tester", Source: "/work/tester.go", Line: 27},
			{Function: "main.main"},
		},
		Breadcrumbs: []Crumb{
			{Level: "error", Time: 42, Message: "breadcrumb 0"},
			{Level: "info", Time: 37, Message: "breadcrumb 1"},
		},
	}
	payload := buildSentry(rec, testConfig(), time.Unix(1700000000, 0))
	event := decodeEvent(t, payload)

	assert.Len(t, event["event_id"], 32)
	assert.NotContains(t, event["event_id"], "-")
	assert.Equal(t, "c", event["platform"])
	assert.Equal(t, "fatal", event["level"])
	assert.Equal(t, "rev-123", event["release"])
	assert.Equal(t, "47", event["dist"])
	assert.Equal(t, "staging", event["environment"])
	assert.Equal(t, float64(1700000000), event["timestamp"])

	tags := event["tags"].(map[string]interface{})
	assert.Equal(t, "/work", tags["path"])
	assert.Equal(t, `"./tester" "3"`, tags["commandline"])

	value := exceptionValue(t, event)
	assert.Equal(t, "Segmentation fault", value["type"])
	assert.Equal(t, "Segmentation fault (11) on address 0x42.", value["value"])
	assert.Equal(t, "my-context", value["thread_id"])

	mechanism := value["mechanism"].(map[string]interface{})
	assert.Equal(t, "signalhandler", mechanism["type"])
	assert.Equal(t, false, mechanism["handled"])
	data := mechanism["data"].(map[string]interface{})
	assert.Equal(t, "0x42", data["relevant_address"])

	// frames render outermost-first
	frames := value["stacktrace"].(map[string]interface{})["frames"].([]interface{})
	require.Len(t, frames, 2)
	first := frames[0].(map[string]interface{})
	assert.Equal(t, "main.main", first["function"])
	_, hasFilename := first["filename"]
	assert.False(t, hasFilename, "sourceless frames carry no filename")
	second := frames[1].(map[string]interface{})
	assert.Equal(t, "main.crash", second["function"])
	assert.Equal(t, "/work/tester.go", second["filename"])
	assert.Equal(t, float64(27), second["lineno"])

	crumbs := event["breadcrumbs"].(map[string]interface{})["values"].([]interface{})
	require.Len(t, crumbs, 2)
	assert.Equal(t, "breadcrumb 0", crumbs[0].(map[string]interface{})["message"])
	assert.Equal(t, float64(42), crumbs[0].(map[string]interface{})["timestamp"])
	assert.Equal(t, "breadcrumb 1", crumbs[1].(map[string]interface{})["message"])
	assert.Equal(t, float64(37), crumbs[1].(map[string]interface{})["timestamp"])
}

func TestSentryAbortHasNoFaultAddress(t *testing.T) {
	rec := &Record{Signal: &SignalCause{Number: uint32(syscall.SIGABRT)}}
	event := decodeEvent(t, buildSentry(rec, testConfig(), time.Now()))
	mechanism := exceptionValue(t, event)["mechanism"].(map[string]interface{})
	_, hasData := mechanism["data"]
	assert.False(t, hasData)
}

func TestSentryExceptionEvent(t *testing.T) {
	rec := &Record{
		Exception: &ExceptionCause{TypeName: "int", Description: "number: 42"},
	}
	event := decodeEvent(t, buildSentry(rec, testConfig(), time.Now()))
	value := exceptionValue(t, event)
	assert.Equal(t, "UncaughtExceptionHandler",
		value["mechanism"].(map[string]interface{})["type"])
	assert.Equal(t, "int", value["type"])
	assert.Equal(t, "int exception: number: 42.", value["value"])
	_, hasThread := value["thread_id"]
	assert.False(t, hasThread)
}

func TestSentryAssertEvent(t *testing.T) {
	rec := &Record{
		Assert: &AssertCause{Function: "bar", File: "tester.cpp", Line: 27, Condition: "false"},
	}
	event := decodeEvent(t, buildSentry(rec, testConfig(), time.Now()))
	value := exceptionValue(t, event)
	assert.Equal(t, "AssertionViolation",
		value["mechanism"].(map[string]interface{})["type"])
	assert.Equal(t, "assert", value["type"])
	assert.True(t, strings.HasPrefix(value["value"].(string), "assertion false in bar [tester.cpp:27]"),
		"got %q", value["value"])
}

func TestSentryOmitsEmptyStacktrace(t *testing.T) {
	rec := &Record{
		Signal: &SignalCause{Number: uint32(syscall.SIGSEGV)},
		Frames: []symbolic.Frame{{}}, // nothing resolvable
	}
	event := decodeEvent(t, buildSentry(rec, testConfig(), time.Now()))
	_, hasTrace := exceptionValue(t, event)["stacktrace"]
	assert.False(t, hasTrace)
}

func TestPlainPayload(t *testing.T) {
	rec := &Record{
		Assert: &AssertCause{Function: "bar", File: "tester.go", Line: 27, Condition: "false", Explanation: "bad input"},
		Frames: []symbolic.Frame{
			{Function: "main.bar", Source: "/work/tester.go", Line: 27},
			{Function: "main.main"},
			{},
		},
		Breadcrumbs: []Crumb{{Level: "error", Time: 42, Message: "breadcrumb 0"}},
	}
	cfg := testConfig()
	cfg.Format = SendPlainText
	payload := buildPlain(rec, cfg, time.Now())

	assert.Contains(t, payload, "=== CRASH ===")
	assert.Contains(t, payload, "Assertion violation in bar [tester.go:27]: false.")
	assert.Contains(t, payload, "This is due to bad input.")
	assert.Contains(t, payload, "  at main.bar [/work/tester.go:27]\n")
	assert.Contains(t, payload, "  at main.main\n")
	assert.Contains(t, payload, "  at (unknown)\n")
	assert.Contains(t, payload, `Command: "./tester" "3"`)
	assert.Contains(t, payload, "   Path: /work")
	assert.Contains(t, payload, "[error] breadcrumb 0")
}

func TestSignalDescription(t *testing.T) {
	assert.Equal(t, "Segmentation fault", SignalDescription(uint32(syscall.SIGSEGV)))
	assert.Equal(t, "Bus error", SignalDescription(uint32(syscall.SIGBUS)))
	assert.Equal(t, "Aborted", SignalDescription(uint32(syscall.SIGABRT)))
}

func TestRunDispatchesToSender(t *testing.T) {
	var sent []string
	cfg := testConfig()
	cfg.Sender = func(format SendFormat, payload string) bool {
		assert.Equal(t, SendJSONSentry, format)
		sent = append(sent, payload)
		return true
	}
	prepared := false
	cfg.Prepare = func(format SendFormat) {
		assert.Equal(t, SendJSONSentry, format)
		prepared = true
	}

	Run(bytes.NewReader(assertStream(t)), cfg)
	assert.True(t, prepared)
	require.Len(t, sent, 1)
	event := decodeEvent(t, sent[0])
	assert.Equal(t, "assert", exceptionValue(t, event)["type"])
}

func TestRunProducesNothingOnFramingError(t *testing.T) {
	cfg := testConfig()
	cfg.Sender = func(SendFormat, string) bool {
		t.Fatal("sender must not run for a broken stream")
		return false
	}
	stream := assertStream(t)
	Run(bytes.NewReader(stream[:len(stream)-5]), cfg)
}
