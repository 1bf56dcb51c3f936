package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magtag-badge/badge/pkg/status"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                       { <-t.done; return true }
func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

// stuckToken never completes.
type stuckToken struct{ fakeToken }

func (t *stuckToken) Done() <-chan struct{} { return make(chan struct{}) }

type message struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	connected  bool
	connectErr error
	stuck      bool
	published  []message

	disconnects int
}

func (c *fakeClient) Connect() MQTT.Token {
	if c.connectErr == nil {
		c.connected = true
	}
	return newToken(c.connectErr)
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	if c.stuck {
		return &stuckToken{}
	}
	c.published = append(c.published, message{topic, qos, retained, payload.([]byte)})
	return newToken(nil)
}

func (c *fakeClient) Disconnect(_ uint) {
	c.connected = false
	c.disconnects++
}
func (c *fakeClient) IsConnected() bool { return c.connected }

func newTestPublisher(c *fakeClient, debug bool) *Publisher {
	return &Publisher{
		opts: Options{
			Broker:         "tcp://broker:1883",
			TopicPrefix:    "conf",
			ConnectTimeout: 100 * time.Millisecond,
			Debug:          debug,
		},
		client: c,
	}
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "badge/ada_example.com/status", Topic("", "Ada@Example.com", false))
	assert.Equal(t, "conf/room_1_a/status", Topic("/conf/", "room 1/a", false))
	assert.Equal(t, "debug_conf/x/status", Topic("conf", "x", true))
}

func TestTopicLevel(t *testing.T) {
	assert.Equal(t, "unknown", TopicLevel("  "))
	assert.Equal(t, "a_b_c_d", TopicLevel("a+b#c/d"))
}

func TestBadgeID(t *testing.T) {
	assert.Equal(t, "ada@example.com", BadgeID("ada@example.com"))
	assert.NotEmpty(t, BadgeID(""))
}

func TestNewRequiresBroker(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	p, err := New(Options{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.opts.ClientID)
	assert.Equal(t, defaultConnectTimeout, p.opts.ConnectTimeout)
}

func TestPublish(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c, false)

	s := &status.Snapshot{Profile: "production", WakeMask: "0xC000"}
	require.NoError(t, p.Publish(context.Background(), "ada@example.com", s))

	require.Len(t, c.published, 1)
	m := c.published[0]
	assert.Equal(t, "conf/ada_example.com/status", m.topic)
	assert.Equal(t, byte(1), m.qos)
	assert.True(t, m.retained)

	var got status.Snapshot
	require.NoError(t, json.Unmarshal(m.payload, &got))
	assert.Equal(t, "0xC000", got.WakeMask)

	p.Close()
	assert.False(t, c.connected)
}

func TestPublishDebugTopic(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c, true)

	require.NoError(t, p.Publish(context.Background(), "x", &status.Snapshot{}))
	assert.Equal(t, "debug_conf/x/status", c.published[0].topic)
}

func TestPublishErrors(t *testing.T) {
	p := newTestPublisher(&fakeClient{}, false)
	assert.Error(t, p.Publish(context.Background(), "x", nil))

	p = newTestPublisher(&fakeClient{connectErr: errors.New("not authorized")}, false)
	err := p.Publish(context.Background(), "x", &status.Snapshot{})
	assert.ErrorContains(t, err, "not authorized")

	p = newTestPublisher(&fakeClient{stuck: true}, false)
	err = p.Publish(context.Background(), "x", &status.Snapshot{})
	assert.ErrorContains(t, err, "timed out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = newTestPublisher(&fakeClient{stuck: true, connected: true}, false)
	err = p.Publish(ctx, "x", &status.Snapshot{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectFailureStopsClient(t *testing.T) {
	c := &fakeClient{connectErr: errors.New("connection refused")}
	p := newTestPublisher(c, false)

	assert.ErrorContains(t, p.Connect(context.Background()), "connection refused")
	assert.Equal(t, 1, c.disconnects)

	p.Close()
	assert.Equal(t, 2, c.disconnects)
}
