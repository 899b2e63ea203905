// Package export dumps full system data as JSON for offline analysis.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/vaillant"
)

// Dump is the exported document.
type Dump struct {
	ExportedAt time.Time         `json:"exported_at"`
	Systems    []vaillant.System `json:"systems"`
}

// Write fetches all systems and writes the indented JSON dump to w.
func Write(ctx context.Context, client vaillant.Client, w io.Writer, now time.Time) error {
	systems, err := client.Systems(ctx)
	if err != nil {
		return fmt.Errorf("fetch systems: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Dump{ExportedAt: now.UTC(), Systems: systems}); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Filename returns the default timestamped export file name.
func Filename(now time.Time) string {
	return fmt.Sprintf("vaillant_export_%s.json", now.Format("20060102_150405"))
}
