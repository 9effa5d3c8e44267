package pipeline

import (
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/bvgastel/crashy/crashd/event"
)

// Regular Expression Descent: the signature becomes the first frame whose
// function matches none of the blacklist expressions, so wrappers and
// runtime plumbing never name a crash.
type Rx struct {
	Stage
	Regexps []*regexp.Regexp
}

func (r *Rx) Process(report *event.Report) bool {
	if len(r.Regexps) == 0 {
		// to next stage
		return false
	}

	frames := report.CrashingFrames()
	if len(frames) == 0 {
		// go to next stage
		return false
	}

	for _, frame := range frames {
		isMatch := false
		for _, rx := range r.Regexps {
			isMatch = rx.MatchString(frame.Function) || isMatch
			if isMatch {
				break
			}
		}
		if !isMatch {
			report.Signature = frame.Function
			report.Source = event.SourceOf(frame)
			return true
		}
	}

	report.Signature = frames[0].Function
	report.Source = event.SourceOf(frames[0])

	return true
}

func NewRx(regs []string) *Rx {
	var rxSlice []*regexp.Regexp
	for _, reg := range regs {
		rx, err := regexp.Compile(reg)
		log.WithField("regexp", reg).
			Debug("Rx stage: compile regexp")
		if err == nil {
			rxSlice = append(rxSlice, rx)
		} else {
			log.WithError(err).
				Error("Can't compile regular expression")
		}
	}

	return &Rx{
		Regexps: rxSlice,
	}
}
