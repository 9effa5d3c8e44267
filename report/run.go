package report

import (
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Run is the reporter process main loop: block on the pipe, materialize one
// record, format it and dispatch. It returns when the record is handled or
// the stream turns out to be unusable; the caller exits either way.
func Run(in io.Reader, cfg Config) {
	if cfg.Prepare != nil {
		cfg.Prepare(cfg.Format)
	}

	now := time.Now()
	rec, ok := parse(in, cfg, newPrinter(), now)
	if !ok {
		// framing error or the victim died mid-record; nothing to report
		return
	}

	var payload string
	switch cfg.Format {
	case SendPlainText:
		payload = buildPlain(rec, cfg, now)
	case SendJSONSentry:
		payload = buildSentry(rec, cfg, now)
	default:
		return
	}

	if cfg.Sender != nil {
		if !cfg.Sender(cfg.Format, payload) {
			log.Warning("Failed to send crash report")
		}
		return
	}
	fmt.Fprintln(os.Stderr, payload)
}
