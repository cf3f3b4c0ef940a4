package progress

import (
	"fmt"

	"github.com/pcj/mobyprogress"
)

const streamNewline = "\r\n"

type rawProgressFormatter struct{}

func (sf *rawProgressFormatter) formatStatus(id, msg string) []byte {
	return []byte(msg + streamNewline)
}

func (sf *rawProgressFormatter) formatProgress(id, action string, progress *mobyprogress.Progress) []byte {
	counts := countString(progress)
	endl := "\r"
	if counts == "" {
		endl += "\n"
	}
	return []byte(action + " " + counts + endl)
}

// countString renders "current/total units", or nothing when the counts
// are hidden or unknown.
func countString(p *mobyprogress.Progress) string {
	if p.HideCounts || p.Total <= 0 {
		return ""
	}
	units := p.Units
	if units == "" {
		units = "B"
	}
	return fmt.Sprintf("%d/%d %s", p.Current, p.Total, units)
}
