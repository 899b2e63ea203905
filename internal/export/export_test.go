package export_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/export"
	"github.com/boilerwatch/boilerwatch/internal/vaillant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	client := vaillant.NewFake(vaillant.System{
		ID:            "sys1",
		Name:          "Dom",
		WaterPressure: vaillant.Float(1.3),
		Zones:         []vaillant.Zone{{Name: "Salon"}},
	})
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, export.Write(context.Background(), client, &buf, now))

	var dump export.Dump
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dump))
	assert.True(t, dump.ExportedAt.Equal(now))
	require.Len(t, dump.Systems, 1)
	assert.Equal(t, "sys1", dump.Systems[0].ID)
	require.Len(t, dump.Systems[0].Zones, 1)
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 2, 7, 6, 5, 4, 0, time.UTC)
	assert.Equal(t, "vaillant_export_20260207_060504.json", export.Filename(now))
}
