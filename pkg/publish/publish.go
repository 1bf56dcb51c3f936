// Package publish sends badge status snapshots to an MQTT broker.
package publish

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/magtag-badge/badge/pkg/status"
)

const (
	defaultConnectTimeout = 5 * time.Second
	debugTopicPrefix      = "debug_"
)

// Options configures a Publisher.
type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	ConnectTimeout time.Duration
	// Debug prefixes topics so bench units do not mix with deployed badges.
	Debug bool
}

// client is the part of MQTT.Client the publisher uses.
type client interface {
	Connect() MQTT.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Publisher publishes snapshots to <prefix>/<badge>/status.
type Publisher struct {
	opts   Options
	client client
}

// New prepares a publisher. It does not connect.
func New(opts Options) (*Publisher, error) {
	if opts.Broker == "" {
		return nil, pkgerrors.New("mqtt broker is not configured")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.ClientID == "" {
		hostname, _ := os.Hostname()
		// Include the host in the client ID so two badges never kick each
		// other off the broker.
		opts.ClientID = "badge-" + TopicLevel(hostname)
		if opts.Debug {
			opts.ClientID = "badge-debug-" + TopicLevel(hostname)
		}
	}

	mo := MQTT.NewClientOptions()
	mo.AddBroker(opts.Broker)
	mo.SetClientID(opts.ClientID)
	mo.SetCleanSession(true)
	mo.SetKeepAlive(60 * time.Second)
	mo.SetPingTimeout(10 * time.Second)
	mo.SetConnectTimeout(opts.ConnectTimeout)
	mo.SetAutoReconnect(true)
	if opts.Username != "" {
		mo.SetUsername(opts.Username)
		mo.SetPassword(opts.Password)
	}
	mo.OnConnect = func(_ MQTT.Client) {
		logrus.WithField("broker", opts.Broker).Info("connected to mqtt broker")
	}
	mo.OnConnectionLost = func(_ MQTT.Client, err error) {
		logrus.WithField("broker", opts.Broker).Warnf("mqtt connection lost: %v", err)
	}

	return &Publisher{
		opts:   opts,
		client: MQTT.NewClient(mo),
	}, nil
}

// Connect connects to the broker if not already connected.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.client.IsConnected() {
		return nil
	}
	if err := wait(ctx, p.client.Connect(), p.opts.ConnectTimeout, "connect to "+p.opts.Broker); err != nil {
		// Stop the client from retrying in the background.
		p.client.Disconnect(0)
		return err
	}
	return nil
}

// Topic returns the status topic for a badge.
func (p *Publisher) Topic(badge string) string {
	return Topic(p.opts.TopicPrefix, badge, p.opts.Debug)
}

// Publish sends the snapshot as retained JSON with QoS 1, so a dashboard
// that subscribes later still sees the last state.
func (p *Publisher) Publish(ctx context.Context, badge string, s *status.Snapshot) error {
	if s == nil {
		return pkgerrors.New("snapshot is nil")
	}
	if err := p.Connect(ctx); err != nil {
		return err
	}

	b, err := json.Marshal(s)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to marshal snapshot")
	}

	topic := p.Topic(badge)
	if err := wait(ctx, p.client.Publish(topic, 1, true, b), p.opts.ConnectTimeout, "publish to "+topic); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"topic": topic,
		"bytes": len(b),
	}).Debug("published status")

	return nil
}

// Close disconnects, waiting up to 250ms for in-flight messages. It also
// aborts a connection attempt still in progress.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func wait(ctx context.Context, token MQTT.Token, timeout time.Duration, what string) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return pkgerrors.Wrapf(ctx.Err(), "failed to %s", what)
	case <-timer.C:
		return pkgerrors.Errorf("failed to %s: timed out after %s", what, timeout)
	}

	if err := token.Error(); err != nil {
		return pkgerrors.Wrapf(err, "failed to %s", what)
	}
	return nil
}

// Topic builds <prefix>/<badge>/status. Debug topics get a "debug_" prefix.
func Topic(prefix, badge string, debug bool) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "badge"
	}
	if debug {
		prefix = debugTopicPrefix + prefix
	}
	return prefix + "/" + TopicLevel(badge) + "/status"
}

// TopicLevel makes s safe for use as a single MQTT topic level.
func TopicLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', ' ', '@':
			return '_'
		}
		return r
	}, s)
}

// BadgeID picks the identifier used in topics: the email if set, else the
// host name.
func BadgeID(email string) string {
	if email != "" {
		return email
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
