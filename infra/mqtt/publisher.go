// Package mqtt forwards completion events to an MQTT broker so downstream
// consumers (route supervisors, dashboards) can react without polling the
// reference store.
package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/mucollege/dispatchtrack/core/events"
	"github.com/mucollege/dispatchtrack/infra/logger"
)

// Config defines the connection parameters for the completion publisher.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "dispatch/completions"
	}
	if c.ClientID == "" {
		c.ClientID = "dispatchtrack-" + uuid.NewString()[:8]
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	return nil
}

// Publisher publishes completion events.
type Publisher interface {
	PublishCompletion(ev events.DispatchCompleted) error
	Close()
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoPublisher implements Publisher using Eclipse Paho.
type PahoPublisher struct {
	cli   pahoClient
	topic string
	qos   byte
	log   logger.Logger
}

// NewPahoPublisher connects to the broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New("mqtt-publisher")
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true)
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &PahoPublisher{cli: cli, topic: cfg.Topic, qos: cfg.QoS, log: log}, nil
}

// PublishCompletion sends the event as JSON to the configured topic.
func (p *PahoPublisher) PublishCompletion(ev events.DispatchCompleted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode completion event: %w", err)
	}
	token := p.cli.Publish(p.topic, p.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish completion: %w", token.Error())
	}
	p.log.Debugw("completion published", map[string]any{"record": ev.RecordID, "topic": p.topic})
	return nil
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

// MockPublisher records events for tests.
type MockPublisher struct {
	Events []events.DispatchCompleted
	Err    error
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

func (m *MockPublisher) PublishCompletion(ev events.DispatchCompleted) error {
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MockPublisher) Close() {}
