package client

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/magtag-badge/badge/pkg/events"
)

const resubscribeDelay = 3 * time.Second

// SubscribeEvents streams daemon events until ctx is done. The connection is
// re-established when the daemon restarts. The channel is closed on return.
func (c *Client) SubscribeEvents(ctx context.Context) <-chan events.Event {
	ch := make(chan events.Event, 16)

	go func() {
		defer close(ch)
		for {
			err := c.streamEvents(ctx, ch)
			if ctx.Err() != nil {
				return
			}
			logrus.Debugf("event stream ended: %v; reconnecting in %s", err, resubscribeDelay)

			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeDelay):
			}
		}
	}()

	return ch
}

func (c *Client) streamEvents(ctx context.Context, out chan<- events.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://unix/events", nil)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to subscribe")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Errorf("got %d from event stream", resp.StatusCode)
	}

	return readEvents(ctx, bufio.NewScanner(resp.Body), out)
}

// readEvents parses "event:" and "data:" lines; a blank line ends an event.
func readEvents(ctx context.Context, sc *bufio.Scanner, out chan<- events.Event) error {
	var ev events.Event
	var data strings.Builder

	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.Name != "" {
				ev.Data = []byte(data.String())
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			ev = events.Event{}
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}

	if err := sc.Err(); err != nil {
		return err
	}
	return pkgerrors.New("stream closed by daemon")
}
