package pressure

import (
	"fmt"
	"strings"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/vaillant"
)

// Report renders the plain-text status report for a snapshot. It is
// printed by the monitor command and carried in alert bodies.
func Report(sys vaillant.System, status Status, t Thresholds, now time.Time) string {
	var b strings.Builder

	switch status {
	case StatusCritical:
		fmt.Fprintf(&b, "WATER PRESSURE CRITICAL: %s bar (threshold: %.1f bar)\n",
			formatFloat(sys.WaterPressure), t.Critical)
	case StatusWarning:
		fmt.Fprintf(&b, "WATER PRESSURE LOW: %s bar (threshold: %.1f bar)\n",
			formatFloat(sys.WaterPressure), t.Warning)
	case StatusUnknown:
		b.WriteString("WATER PRESSURE: UNKNOWN (could not read)\n")
	default:
		fmt.Fprintf(&b, "Water pressure OK: %s bar\n", formatFloat(sys.WaterPressure))
	}

	fmt.Fprintf(&b, "Outdoor temp: %s C\n", formatFloat(sys.OutdoorTemp))
	if len(sys.Circuits) > 0 {
		fmt.Fprintf(&b, "Flow temp: %s C\n", formatFloat(sys.Circuits[0].FlowTemp))
	}
	for _, zone := range sys.Zones {
		fmt.Fprintf(&b, "%s: %s C (target: %s C)\n",
			zone.Name, formatFloat(zone.CurrentTemp), formatFloat(zone.TargetTemp))
	}
	for _, dhw := range sys.DHW {
		fmt.Fprintf(&b, "DHW: %s C (target: %s C, mode: %s)\n",
			formatFloat(dhw.CurrentTemp), formatFloat(dhw.TargetTemp), dhw.OperationMode)
	}

	connectivity := "online"
	if !sys.Connected {
		connectivity = "OFFLINE"
	}
	fmt.Fprintf(&b, "%s | %s | %s",
		now.Format("2006-01-02 15:04:05"), sys.Name, connectivity)

	return b.String()
}

func formatFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
