package readings

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// timestampLayout matches the rows the chart pipeline consumes.
const timestampLayout = "2006-01-02 15:04:05"

var csvHeaders = []string{
	"timestamp",
	"water_pressure_bar",
	"outdoor_temp_c",
	"circuit_flow_temp_c",
	"energy_manager_state",
	"circuit_state",
	"connected",
	"zone_name",
	"zone_current_temp_c",
	"zone_target_temp_c",
	"zone_humidity_pct",
	"zone_heating_state",
	"dhw_current_temp_c",
	"dhw_target_temp_c",
	"dhw_operation_mode",
	"dhw_current_special_function",
}

// CSVSink appends readings to monthly CSV files (boiler_YYYY-MM.csv)
// under a data directory, the format the static chart front-end reads.
type CSVSink struct {
	dir string
	now func() time.Time
}

type CSVOption func(*CSVSink)

// WithCSVClock overrides the clock used to pick the monthly file. Used
// in tests.
func WithCSVClock(now func() time.Time) CSVOption {
	return func(s *CSVSink) {
		s.now = now
	}
}

// NewCSV creates a sink writing under dir.
func NewCSV(dir string, opts ...CSVOption) *CSVSink {
	s := &CSVSink{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CSVSink) path() string {
	month := s.now().UTC().Format("2006-01")
	return filepath.Join(s.dir, fmt.Sprintf("boiler_%s.csv", month))
}

// Append writes the rows to the current monthly file, creating it with a
// header when needed and migrating the header when columns were added
// since the file was started.
func (s *CSVSink) Append(ctx context.Context, rows []Reading) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	path := s.path()

	exists := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if exists {
		if err := s.migrateHeader(path); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(csvHeaders); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(record(row)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// migrateHeader rewrites the header line when the column set grew.
// Existing rows keep their short column count; CSV readers treat the
// missing trailing fields as empty.
func (s *CSVSink) migrateHeader(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	lines := strings.SplitN(string(data), "\n", 2)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil
	}
	existing := strings.Split(strings.TrimSpace(lines[0]), ",")
	if len(existing) >= len(csvHeaders) {
		return nil
	}

	rest := ""
	if len(lines) == 2 {
		rest = lines[1]
	}
	migrated := strings.Join(csvHeaders, ",") + "\n" + rest
	if err := os.WriteFile(path, []byte(migrated), 0o644); err != nil {
		return fmt.Errorf("migrate header of %s: %w", path, err)
	}
	return nil
}

// LastTimestamp reads the timestamp of the final row in the current
// monthly file. A missing file or a file with only a header means no
// reading yet; readings from a previous month do not count against the
// min-interval guard.
func (s *CSVSink) LastTimestamp(ctx context.Context) (time.Time, bool, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read %s: %w", s.path(), err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		return time.Time{}, false, nil
	}
	last := lines[len(lines)-1]
	fields := strings.SplitN(last, ",", 2)
	ts, err := time.ParseInLocation(timestampLayout, fields[0], time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last timestamp %q: %w", fields[0], err)
	}
	return ts, true, nil
}

func (s *CSVSink) Close() error {
	return nil
}

func record(r Reading) []string {
	return []string{
		r.Timestamp.UTC().Format(timestampLayout),
		formatFloat(r.WaterPressure),
		formatFloat(r.OutdoorTemp),
		formatFloat(r.CircuitFlowTemp),
		r.EnergyManagerState,
		r.CircuitState,
		strconv.FormatBool(r.Connected),
		r.ZoneName,
		formatFloat(r.ZoneCurrentTemp),
		formatFloat(r.ZoneTargetTemp),
		formatFloat(r.ZoneHumidity),
		r.ZoneHeatingState,
		formatFloat(r.DHWCurrentTemp),
		formatFloat(r.DHWTargetTemp),
		r.DHWOperationMode,
		r.DHWSpecialFunction,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
