package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mucollege/dispatchtrack/core/events"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	connected  bool
	topic      string
	qos        byte
	payload    []byte
	publishErr error
}

func (c *fakeClient) IsConnected() bool { return c.connected }
func (c *fakeClient) Connect() paho.Token {
	c.connected = true
	return &fakeToken{}
}
func (c *fakeClient) Disconnect(uint) { c.connected = false }
func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	c.topic = topic
	c.qos = qos
	c.payload = payload.([]byte)
	return &fakeToken{err: c.publishErr}
}

func withFakeClient(t *testing.T, cli *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return cli }
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestPublishCompletion(t *testing.T) {
	cli := &fakeClient{}
	withFakeClient(t, cli)

	p, err := NewPahoPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883", QoS: 1})
	require.NoError(t, err)
	defer p.Close()

	ev := events.DispatchCompleted{RecordID: "d1", CollegeID: "c1", Recipient: "A. Sharma"}
	require.NoError(t, p.PublishCompletion(ev))

	assert.Equal(t, "dispatch/completions", cli.topic)
	assert.Equal(t, byte(1), cli.qos)
	var got events.DispatchCompleted
	require.NoError(t, json.Unmarshal(cli.payload, &got))
	assert.Equal(t, ev.RecordID, got.RecordID)
	assert.Equal(t, ev.Recipient, got.Recipient)
}

func TestPublishCompletionError(t *testing.T) {
	cli := &fakeClient{publishErr: assert.AnError}
	withFakeClient(t, cli)

	p, err := NewPahoPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	assert.Error(t, p.PublishCompletion(events.DispatchCompleted{RecordID: "d1"}))
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true}
	assert.Error(t, cfg.Validate())
	cfg.Broker = "tcp://localhost:1883"
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, Config{}.Validate(), "disabled publisher needs no broker")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, "dispatch/completions", cfg.Topic)
	assert.NotEmpty(t, cfg.ClientID)
}

func TestMockPublisherRecords(t *testing.T) {
	m := NewMockPublisher()
	require.NoError(t, m.PublishCompletion(events.DispatchCompleted{RecordID: "d1"}))
	assert.Len(t, m.Events, 1)
}
