package readings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// PostgresSink persists readings to a boiler_readings table. Useful when
// the poller runs next to a database instead of a git-committed data
// directory.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgres opens the database and ensures the schema exists.
func NewPostgres(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	s := &PostgresSink{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) ensureSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS boiler_readings (
		id SERIAL PRIMARY KEY,
		ts TIMESTAMPTZ NOT NULL,
		water_pressure_bar DOUBLE PRECISION,
		outdoor_temp_c DOUBLE PRECISION,
		circuit_flow_temp_c DOUBLE PRECISION,
		energy_manager_state VARCHAR(64),
		circuit_state VARCHAR(64),
		connected BOOLEAN NOT NULL,
		zone_name VARCHAR(255),
		zone_current_temp_c DOUBLE PRECISION,
		zone_target_temp_c DOUBLE PRECISION,
		zone_humidity_pct DOUBLE PRECISION,
		zone_heating_state VARCHAR(64),
		dhw_current_temp_c DOUBLE PRECISION,
		dhw_target_temp_c DOUBLE PRECISION,
		dhw_operation_mode VARCHAR(64),
		dhw_special_function VARCHAR(64)
	);

	CREATE INDEX IF NOT EXISTS idx_boiler_readings_ts ON boiler_readings (ts DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("ensure boiler_readings schema: %w", err)
	}
	return nil
}

// Append inserts the rows of one poll.
func (s *PostgresSink) Append(ctx context.Context, rows []Reading) error {
	query := `INSERT INTO boiler_readings (
		ts, water_pressure_bar, outdoor_temp_c, circuit_flow_temp_c,
		energy_manager_state, circuit_state, connected,
		zone_name, zone_current_temp_c, zone_target_temp_c,
		zone_humidity_pct, zone_heating_state,
		dhw_current_temp_c, dhw_target_temp_c, dhw_operation_mode,
		dhw_special_function
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	for _, r := range rows {
		_, err := s.db.ExecContext(ctx, query,
			r.Timestamp.UTC(),
			nullFloat(r.WaterPressure),
			nullFloat(r.OutdoorTemp),
			nullFloat(r.CircuitFlowTemp),
			nullString(r.EnergyManagerState),
			nullString(r.CircuitState),
			r.Connected,
			nullString(r.ZoneName),
			nullFloat(r.ZoneCurrentTemp),
			nullFloat(r.ZoneTargetTemp),
			nullFloat(r.ZoneHumidity),
			nullString(r.ZoneHeatingState),
			nullFloat(r.DHWCurrentTemp),
			nullFloat(r.DHWTargetTemp),
			nullString(r.DHWOperationMode),
			nullString(r.DHWSpecialFunction),
		)
		if err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
	}
	return nil
}

// LastTimestamp returns the newest stored reading time.
func (s *PostgresSink) LastTimestamp(ctx context.Context) (time.Time, bool, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT ts FROM boiler_readings ORDER BY ts DESC LIMIT 1`).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last reading: %w", err)
	}
	return ts, true, nil
}

// Close closes the database connection.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
