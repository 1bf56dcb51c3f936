package daemon

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const sseKeepAlive = 30 * time.Second

// streamEvents relays hub events to the client as server-sent events until
// the client goes away or the daemon shuts down.
func streamEvents(c *gin.Context) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	logrus.WithField("subscribers", hub.Subscribers()).Debug("event stream opened")

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-ticker.C:
			// A comment line keeps idle proxies from closing the stream.
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})

	logrus.Debug("event stream closed")
}
