package readings_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/readings"
	"github.com/boilerwatch/boilerwatch/internal/vaillant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

func newCSVSink(t *testing.T) (*readings.CSVSink, string) {
	t.Helper()
	dir := t.TempDir()
	sink := readings.NewCSV(dir, readings.WithCSVClock(func() time.Time { return fixedNow }))
	return sink, filepath.Join(dir, "boiler_2026-02.csv")
}

func sampleRow(at time.Time) readings.Reading {
	return readings.Reading{
		Timestamp:     at,
		WaterPressure: vaillant.Float(1.4),
		OutdoorTemp:   vaillant.Float(-2.0),
		Connected:     true,
		ZoneName:      "Salon",
	}
}

func TestCSVSink_AppendCreatesMonthlyFile(t *testing.T) {
	sink, path := newCSVSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, []readings.Reading{sampleRow(fixedNow)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,water_pressure_bar,"))
	assert.True(t, strings.HasPrefix(lines[1], "2026-02-07 12:00:00,1.4,-2,"))
	assert.Contains(t, lines[1], "true,Salon")
}

func TestCSVSink_AppendDoesNotRepeatHeader(t *testing.T) {
	sink, path := newCSVSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, []readings.Reading{sampleRow(fixedNow)}))
	require.NoError(t, sink.Append(ctx, []readings.Reading{sampleRow(fixedNow.Add(time.Hour))}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, 1, strings.Count(string(data), "timestamp,"))
}

func TestCSVSink_HeaderMigration(t *testing.T) {
	sink, path := newCSVSink(t)
	ctx := context.Background()

	// A file started before the DHW columns were added.
	old := "timestamp,water_pressure_bar,outdoor_temp_c\n2026-02-01 10:00:00,1.3,5\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(old), 0o644))

	require.NoError(t, sink.Append(ctx, []readings.Reading{sampleRow(fixedNow)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "dhw_current_special_function")
	assert.True(t, strings.HasPrefix(lines[1], "2026-02-01 10:00:00,1.3,5"), "old rows survive migration")
}

func TestCSVSink_LastTimestamp(t *testing.T) {
	sink, _ := newCSVSink(t)
	ctx := context.Background()

	_, ok, err := sink.LastTimestamp(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no reading before the first append")

	at := fixedNow.Add(-20 * time.Minute)
	require.NoError(t, sink.Append(ctx, []readings.Reading{sampleRow(at)}))
	require.NoError(t, sink.Append(ctx, []readings.Reading{sampleRow(fixedNow)}))

	got, ok, err := sink.LastTimestamp(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(fixedNow))
}

func TestFromSystem_CrossProduct(t *testing.T) {
	sys := vaillant.System{
		WaterPressure: vaillant.Float(1.2),
		Connected:     true,
		Circuits:      []vaillant.Circuit{{FlowTemp: vaillant.Float(40.0), State: "HEATING"}},
		Zones: []vaillant.Zone{
			{Name: "Salon"},
			{Name: "Sypialnia"},
		},
		DHW: []vaillant.DHW{{OperationMode: "TIME_CONTROLLED"}},
	}

	rows := readings.FromSystem(sys, fixedNow)

	require.Len(t, rows, 2)
	assert.Equal(t, "Salon", rows[0].ZoneName)
	assert.Equal(t, "Sypialnia", rows[1].ZoneName)
	for _, row := range rows {
		assert.Equal(t, "TIME_CONTROLLED", row.DHWOperationMode)
		assert.Equal(t, "HEATING", row.CircuitState)
		require.NotNil(t, row.WaterPressure)
		assert.Equal(t, 1.2, *row.WaterPressure)
	}
}

func TestFromSystem_NoZonesNoDHW(t *testing.T) {
	sys := vaillant.System{WaterPressure: vaillant.Float(1.2)}

	rows := readings.FromSystem(sys, fixedNow)

	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].ZoneName)
	assert.Empty(t, rows[0].DHWOperationMode)
}
