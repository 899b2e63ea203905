package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MQTTNotifier publishes alerts as JSON to a broker topic, for home
// automation to react to (e.g. a dashboard light).
type MQTTNotifier struct {
	client paho.Client
	topic  string
}

// NewMQTT connects to the broker.
func NewMQTT(broker, topic string) (*MQTTNotifier, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("boilerwatch").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTNotifier{client: client, topic: topic}, nil
}

func (m *MQTTNotifier) Name() string { return "mqtt" }

type mqttPayload struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Title     string `json:"title"`
	Report    string `json:"report"`
}

// Notify publishes the alert. QoS 1, retained, so a dashboard that
// reconnects still sees the latest state.
func (m *MQTTNotifier) Notify(ctx context.Context, a Alert) error {
	payload, err := json.Marshal(mqttPayload{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    string(a.Status),
		Title:     a.Title,
		Report:    a.Body,
	})
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := m.client.Publish(m.topic, 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTNotifier) Close() error {
	m.client.Disconnect(250)
	return nil
}
