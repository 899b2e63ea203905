// Package readings logs boiler poll results. Rows mirror the columns of
// the diagnostic chart: one row per zone/DHW combination per poll.
package readings

import (
	"context"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/vaillant"
)

// Reading is one logged data row.
type Reading struct {
	Timestamp          time.Time
	WaterPressure      *float64
	OutdoorTemp        *float64
	CircuitFlowTemp    *float64
	EnergyManagerState string
	CircuitState       string
	Connected          bool
	ZoneName           string
	ZoneCurrentTemp    *float64
	ZoneTargetTemp     *float64
	ZoneHumidity       *float64
	ZoneHeatingState   string
	DHWCurrentTemp     *float64
	DHWTargetTemp      *float64
	DHWOperationMode   string
	DHWSpecialFunction string
}

// Sink persists readings.
type Sink interface {
	// Append stores the rows of one poll.
	Append(ctx context.Context, rows []Reading) error

	// LastTimestamp returns the newest stored timestamp. The second
	// return is false when nothing has been stored yet. Used by the
	// min-interval guard.
	LastTimestamp(ctx context.Context) (time.Time, bool, error)

	Close() error
}

// FromSystem flattens a snapshot into rows: the cross product of zones
// and DHW cylinders, with a single row when either list is empty.
func FromSystem(sys vaillant.System, at time.Time) []Reading {
	base := Reading{
		Timestamp:          at.UTC(),
		WaterPressure:      sys.WaterPressure,
		OutdoorTemp:        sys.OutdoorTemp,
		EnergyManagerState: sys.EnergyManagerState,
		Connected:          sys.Connected,
	}
	if len(sys.Circuits) > 0 {
		base.CircuitFlowTemp = sys.Circuits[0].FlowTemp
		base.CircuitState = sys.Circuits[0].State
	}

	zones := sys.Zones
	if len(zones) == 0 {
		zones = []vaillant.Zone{{}}
	}
	dhws := sys.DHW
	if len(dhws) == 0 {
		dhws = []vaillant.DHW{{}}
	}

	rows := make([]Reading, 0, len(zones)*len(dhws))
	for _, zone := range zones {
		for _, dhw := range dhws {
			row := base
			row.ZoneName = zone.Name
			row.ZoneCurrentTemp = zone.CurrentTemp
			row.ZoneTargetTemp = zone.TargetTemp
			row.ZoneHumidity = zone.Humidity
			row.ZoneHeatingState = zone.HeatingState
			row.DHWCurrentTemp = dhw.CurrentTemp
			row.DHWTargetTemp = dhw.TargetTemp
			row.DHWOperationMode = dhw.OperationMode
			row.DHWSpecialFunction = dhw.SpecialFunction
			rows = append(rows, row)
		}
	}
	return rows
}
