package main

import (
	"fmt"
	"log/slog"

	"github.com/boilerwatch/boilerwatch/internal/alert"
	"github.com/boilerwatch/boilerwatch/internal/config"
	"github.com/boilerwatch/boilerwatch/internal/poller"
	"github.com/boilerwatch/boilerwatch/internal/pressure"
	"github.com/boilerwatch/boilerwatch/internal/readings"
	"github.com/boilerwatch/boilerwatch/internal/vaillant"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Poll the boiler once and append readings",
	Long: `Reads the current boiler snapshot, appends it to the configured
readings sink, and sends pressure alerts when the water pressure is
below the warning threshold. A run inside the minimum interval since
the previous reading is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		client, err := newVaillantClient(cfg)
		if err != nil {
			return err
		}
		sink, err := newSink(cfg)
		if err != nil {
			return err
		}
		defer sink.Close()

		notifier, closeNotifier, err := newNotifier(cfg, logger)
		if err != nil {
			return err
		}
		defer closeNotifier()

		p := poller.New(client, sink, notifier,
			pressure.Thresholds{Warning: cfg.Pressure.Warning, Critical: cfg.Pressure.Critical},
			cfg.Readings.MinInterval, logger,
			poller.WithLink(cfg.Alerts.Pushover.Link))
		return p.Run(cmd.Context())
	},
}

func newVaillantClient(cfg *config.Config) (vaillant.Client, error) {
	if cfg.Vaillant.Username == "" || cfg.Vaillant.Password == "" {
		return nil, fmt.Errorf("VAILLANT_USERNAME and VAILLANT_PASSWORD are required")
	}
	return vaillant.NewHTTP(cfg.Vaillant.Username, cfg.Vaillant.Password,
		cfg.Vaillant.Brand, cfg.Vaillant.Country), nil
}

func newSink(cfg *config.Config) (readings.Sink, error) {
	switch cfg.Readings.SinkType {
	case "postgres":
		return readings.NewPostgres(cfg.Readings.PostgresDSN)
	default:
		return readings.NewCSV(cfg.Readings.Dir), nil
	}
}

// newNotifier assembles the enabled alert channels into a fan-out. The
// returned func closes channels that hold connections.
func newNotifier(cfg *config.Config, logger *slog.Logger) (alert.Notifier, func(), error) {
	var notifiers []alert.Notifier
	closeNotifier := func() {}

	if po := cfg.Alerts.Pushover; po.AppToken != "" && po.UserKeys != "" {
		notifiers = append(notifiers, alert.NewPushover(po.AppToken, po.UserKeys))
	}
	if mq := cfg.Alerts.MQTT; mq.Broker != "" {
		n, err := alert.NewMQTT(mq.Broker, mq.Topic)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mqtt broker: %w", err)
		}
		notifiers = append(notifiers, n)
		closeNotifier = func() { _ = n.Close() }
	}
	if sm := cfg.Alerts.SMTP; sm.Host != "" && len(sm.To) > 0 {
		notifiers = append(notifiers,
			alert.NewSMTP(sm.Host, sm.Port, sm.Username, sm.Password, sm.From, sm.To))
	}

	return alert.NewMulti(logger, notifiers...), closeNotifier, nil
}

func init() {
	rootCmd.AddCommand(logCmd)
}
