// Package pressure classifies boiler water pressure against alert
// thresholds and renders the status report sent with alerts.
package pressure

// Status is the pressure classification of a snapshot.
type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
	// StatusUnknown means the API did not report a pressure value.
	StatusUnknown Status = "UNKNOWN"
)

// NeedsAlert reports whether the status should fan out to the
// notification channels. An unreadable pressure is alerted too: a boiler
// that stops reporting is as actionable as one reporting low.
func (s Status) NeedsAlert() bool {
	return s != StatusOK
}

// Thresholds holds the alert boundaries in bar.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds matches the values the boiler manual calls the safe
// operating range floor.
var DefaultThresholds = Thresholds{Warning: 1.0, Critical: 0.8}

// Evaluate classifies a pressure reading. A nil reading is Unknown.
func Evaluate(bar *float64, t Thresholds) Status {
	switch {
	case bar == nil:
		return StatusUnknown
	case *bar < t.Critical:
		return StatusCritical
	case *bar < t.Warning:
		return StatusWarning
	default:
		return StatusOK
	}
}
