// Package vaillant is a thin client for the myVAILLANT API: just enough
// surface for the polling, monitoring, boost, and export commands.
package vaillant

import (
	"context"
	"errors"
	"fmt"
)

// Zone is a heating zone reading.
type Zone struct {
	Name         string   `json:"name"`
	CurrentTemp  *float64 `json:"current_temp_c"`
	TargetTemp   *float64 `json:"target_temp_c"`
	Humidity     *float64 `json:"humidity_pct"`
	HeatingState string   `json:"heating_state"`
}

// DHW is a domestic hot water reading.
type DHW struct {
	Index           int      `json:"index"`
	CurrentTemp     *float64 `json:"current_temp_c"`
	TargetTemp      *float64 `json:"target_temp_c"`
	OperationMode   string   `json:"operation_mode"`
	SpecialFunction string   `json:"special_function"`
	Boosting        bool     `json:"boosting"`
}

// Circuit is a heating circuit reading.
type Circuit struct {
	Index    int      `json:"index"`
	FlowTemp *float64 `json:"flow_temp_c"`
	State    string   `json:"state"`
}

// System is a point-in-time snapshot of one heating system. Pointer
// fields are nil when the API did not report the value.
type System struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Connected          bool      `json:"connected"`
	WaterPressure      *float64  `json:"water_pressure_bar"`
	OutdoorTemp        *float64  `json:"outdoor_temp_c"`
	EnergyManagerState string    `json:"energy_manager_state"`
	Zones              []Zone    `json:"zones"`
	Circuits           []Circuit `json:"circuits"`
	DHW                []DHW     `json:"dhw"`
}

// Client reads boiler data and triggers operations.
type Client interface {
	// Systems returns a snapshot of every system on the account.
	Systems(ctx context.Context) ([]System, error)

	// BoostDHW starts a hot water boost on the given system's first
	// DHW cylinder.
	BoostDHW(ctx context.Context, systemID string) error
}

// APIError reports a non-success response from the myVAILLANT API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myVAILLANT API returned %d: %s", e.Status, e.Body)
}

// IsAuthError reports whether err is a 401/403 from the API. The API
// throttles aggressively with these statuses, so callers retry them
// with a backoff.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 401 || apiErr.Status == 403
	}
	return false
}
