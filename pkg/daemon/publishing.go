package daemon

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/magtag-badge/badge/pkg/api"
	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/publish"
	"github.com/magtag-badge/badge/pkg/status"
)

const publishTimeout = 10 * time.Second

var (
	publishScheduler *Scheduler

	publisherMu sync.Mutex
	publisher   *publish.Publisher
	// publisherKey is the broker config the current publisher was made for.
	publisherKey config.PublishConfig
)

// setupPublishing follows the publish section of the config. Without a
// broker the schedule is cleared and any publisher is dropped.
func setupPublishing() {
	if publishScheduler == nil {
		return
	}

	p := conf.Publish()
	if p.Broker == "" {
		publishScheduler.Clear()
		closePublisher()
		logrus.Debug("publishing disabled, no broker configured")
		return
	}

	publisherMu.Lock()
	if publisher != nil && publisherKey != p {
		publisher.Close()
		publisher = nil
	}
	publisherKey = p
	publisherMu.Unlock()

	if err := publishScheduler.Schedule(p.Schedule); err != nil {
		logrus.Errorf("failed to schedule publishing: %v", err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"broker":   p.Broker,
		"schedule": p.Schedule,
	}).Info("publishing scheduled")
}

func closePublisher() {
	publisherMu.Lock()
	defer publisherMu.Unlock()

	if publisher == nil {
		return
	}
	publisher.Close()
	publisher = nil
}

// getPublisher returns a connected publisher, creating one on first use.
func getPublisher(ctx context.Context) (*publish.Publisher, error) {
	publisherMu.Lock()
	defer publisherMu.Unlock()

	if publisher != nil {
		return publisher, nil
	}

	p := publisherKey
	pub, err := publish.New(publish.Options{
		Broker:      p.Broker,
		Username:    p.Username,
		Password:    p.Password,
		TopicPrefix: p.TopicPrefix,
		Debug:       config.IsDebugBuild,
	})
	if err != nil {
		return nil, err
	}
	if err := pub.Connect(ctx); err != nil {
		pub.Close()
		return nil, err
	}

	publisher = pub
	return publisher, nil
}

// havePublishableSample is the scheduler's precheck: there is nothing to
// publish before the first sample.
func havePublishableSample() error {
	if _, ok := history.Last(); !ok {
		return pkgerrors.New("no sample taken yet")
	}
	return nil
}

// publishLatest sends the latest snapshot to the broker.
func publishLatest() error {
	r, ok := history.Last()
	if !ok {
		return pkgerrors.New("no sample taken yet")
	}

	s, err := status.Build(conf, table, &r)
	if err != nil {
		publishesTotal.WithLabelValues("error").Inc()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	pub, err := getPublisher(ctx)
	if err != nil {
		publishesTotal.WithLabelValues("error").Inc()
		return pkgerrors.Wrap(err, "failed to connect to broker")
	}

	badge := publish.BadgeID(conf.Email())
	if err := pub.Publish(ctx, badge, s); err != nil {
		publishesTotal.WithLabelValues("error").Inc()
		return err
	}

	publishesTotal.WithLabelValues("ok").Inc()
	logrus.WithField("topic", pub.Topic(badge)).Debug("status published")
	return nil
}

// publishSchedule reports the publishing setup and the next scheduled run.
func publishSchedule() api.PublishSchedule {
	p := conf.Publish()
	if p.Broker == "" {
		return api.PublishSchedule{}
	}

	ret := api.PublishSchedule{
		Enabled:  true,
		Broker:   p.Broker,
		Topic:    publish.Topic(p.TopicPrefix, publish.BadgeID(conf.Email()), config.IsDebugBuild),
		Schedule: p.Schedule,
	}
	if publishScheduler != nil {
		if next, _ := publishScheduler.Status(); !next.IsZero() {
			ret.NextRun = &next
		}
	}
	return ret
}
