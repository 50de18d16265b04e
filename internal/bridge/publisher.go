package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/internal/config"
	"github.com/btleweather/btleweather/pkg/emr"
)

// Envelope is the JSON message sent to every publisher.
type Envelope struct {
	MeasuredAt time.Time     `json:"measuredAt"`
	Station    string        `json:"station"`
	Snapshot   *emr.Snapshot `json:"snapshot"`
}

// Publisher delivers a snapshot envelope to one external system.
type Publisher interface {
	Name() string
	Publish(env Envelope) error
	Close()
}

// NATSPublisher publishes snapshots to a NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher wraps an existing connection. The caller owns the
// connection lifetime; Close here is a no-op.
func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject}
}

func (p *NATSPublisher) Name() string { return "nats" }

func (p *NATSPublisher) Publish(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}

	log.Debug().
		Str("subject", p.subject).
		Int("bytes", len(data)).
		Msg("Snapshot published to NATS")

	return nil
}

func (p *NATSPublisher) Close() {}

// MQTTPublisher publishes snapshots to an MQTT topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTPublisher connects to the configured broker. Auto-reconnect
// is on, so a broker outage only surfaces as publish failures.
func NewMQTTPublisher(cfg *config.MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Str("broker", cfg.BrokerURL).Msg("MQTT client connected")
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Error().Err(err).Str("broker", cfg.BrokerURL).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", cfg.BrokerURL, token.Error())
	}

	return &MQTTPublisher{
		client: client,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
	}, nil
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

func (p *MQTTPublisher) Publish(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	token := p.client.Publish(p.topic, p.qos, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s: timeout", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	log.Debug().
		Str("topic", p.topic).
		Int("bytes", len(data)).
		Msg("Snapshot published to MQTT")

	return nil
}

func (p *MQTTPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
