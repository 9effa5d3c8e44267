// Package pipeline contains objects for processing by a conveyor
package pipeline

import (
	"github.com/bvgastel/crashy/crashd/event"
)

// Pipeline stage
type Stage interface {
	//Process the report
	//If return true then pipeline stop
	Process(report *event.Report) bool
}

type SignatureAndSource struct {
	Stage
}

func (m *SignatureAndSource) Process(report *event.Report) bool {
	frames := report.CrashingFrames()
	if len(frames) > 0 {
		frame := &frames[0]
		report.Signature = frame.Function
		report.Source = event.SourceOf(*frame)
	}

	return false
}
