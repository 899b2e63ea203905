// Package poller runs one boiler polling pass: read the snapshot, log
// the readings, evaluate pressure, and alert when it is off.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/boilerwatch/boilerwatch/internal/alert"
	"github.com/boilerwatch/boilerwatch/internal/pressure"
	"github.com/boilerwatch/boilerwatch/internal/readings"
	"github.com/boilerwatch/boilerwatch/internal/vaillant"
)

// ErrNoData is returned when the API responds but reports no systems.
var ErrNoData = errors.New("no system data retrieved")

// Poller executes polling runs.
type Poller struct {
	client      vaillant.Client
	sink        readings.Sink
	notifier    alert.Notifier
	thresholds  pressure.Thresholds
	minInterval time.Duration
	link        string
	logger      *slog.Logger
	now         func() time.Time
	sleep       func(time.Duration)
}

type Option func(*Poller)

// WithNow overrides the clock. Used in tests.
func WithNow(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// WithSleep overrides the retry backoff sleep. Used in tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(p *Poller) {
		p.sleep = sleep
	}
}

// WithLink sets the chart URL attached to alerts.
func WithLink(link string) Option {
	return func(p *Poller) {
		p.link = link
	}
}

// New creates a poller. minInterval guards against runs scheduled too
// close together (the workflow cron and the public trigger can overlap).
func New(client vaillant.Client, sink readings.Sink, notifier alert.Notifier,
	thresholds pressure.Thresholds, minInterval time.Duration, logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		client:      client,
		sink:        sink,
		notifier:    notifier,
		thresholds:  thresholds,
		minInterval: minInterval,
		logger:      logger,
		now:         time.Now,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one polling pass. A run inside the min interval is
// skipped silently and is not an error.
func (p *Poller) Run(ctx context.Context) error {
	last, ok, err := p.sink.LastTimestamp(ctx)
	if err != nil {
		p.logger.Warn("could not check last reading, polling anyway", "error", err)
	} else if ok {
		elapsed := p.now().Sub(last)
		if elapsed < p.minInterval {
			p.logger.Info("skipping, too soon since last reading",
				"elapsed", elapsed.Round(time.Second), "min_interval", p.minInterval)
			return nil
		}
	}

	systems, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	if len(systems) == 0 {
		return ErrNoData
	}

	at := p.now()
	for _, sys := range systems {
		rows := readings.FromSystem(sys, at)
		if err := p.sink.Append(ctx, rows); err != nil {
			return fmt.Errorf("log readings: %w", err)
		}
		for _, row := range rows {
			p.logger.Info("reading logged",
				"pressure_bar", deref(row.WaterPressure),
				"outdoor_c", deref(row.OutdoorTemp),
				"flow_c", deref(row.CircuitFlowTemp),
				"zone", row.ZoneName,
				"zone_c", deref(row.ZoneCurrentTemp),
				"dhw_c", deref(row.DHWCurrentTemp))
		}

		if err := p.checkPressure(ctx, sys, at); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) fetch(ctx context.Context) ([]vaillant.System, error) {
	systems, err := vaillant.FetchSystems(ctx, p.client, p.logger, p.sleep)
	if err != nil {
		return nil, fmt.Errorf("read boiler data: %w", err)
	}
	return systems, nil
}

func (p *Poller) checkPressure(ctx context.Context, sys vaillant.System, at time.Time) error {
	status := pressure.Evaluate(sys.WaterPressure, p.thresholds)
	report := pressure.Report(sys, status, p.thresholds, at)

	if !status.NeedsAlert() {
		p.logger.Info("pressure ok", "pressure_bar", deref(sys.WaterPressure))
		return nil
	}

	p.logger.Warn("pressure alert", "status", string(status),
		"pressure_bar", deref(sys.WaterPressure))

	title := "Vaillant: low pressure"
	if status == pressure.StatusCritical {
		title = "Vaillant: CRITICAL!"
	}
	err := p.notifier.Notify(ctx, alert.Alert{
		Status: status,
		Title:  title,
		Body:   report,
		Link:   p.link,
	})
	if err != nil {
		return fmt.Errorf("send alerts: %w", err)
	}
	return nil
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
