package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/events"
	"github.com/charlie0129/battray/pkg/types"
	"github.com/charlie0129/battray/pkg/version"
)

var errNoSnapshot = errors.New("no snapshot published yet")

func (a *api) snapshot(c *gin.Context) (types.Snapshot, bool) {
	snap, ok := a.loop.Snapshot()
	if !ok {
		c.IndentedJSON(http.StatusServiceUnavailable, errNoSnapshot.Error())
		_ = c.AbortWithError(http.StatusServiceUnavailable, errNoSnapshot)
		return types.Snapshot{}, false
	}
	return snap, true
}

func (a *api) getSnapshot(c *gin.Context) {
	snap, ok := a.snapshot(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, snap)
}

func (a *api) getSummary(c *gin.Context) {
	snap, ok := a.snapshot(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, snap.Summary)
}

func (a *api) getBatteries(c *gin.Context) {
	snap, ok := a.snapshot(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, snap.Batteries)
}

func (a *api) getDrawMode(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, drawModeResponse(a.loop.Mode()))
}

func (a *api) setDrawMode(c *gin.Context) {
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	// Accept both a JSON string and a bare word.
	req := strings.TrimSpace(string(b))
	var s string
	if json.Unmarshal(b, &s) == nil {
		req = s
	}

	mode, err := a.loop.RequestMode(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, display.ErrUnknownMode) {
			status = http.StatusBadRequest
		}
		c.IndentedJSON(status, err.Error())
		_ = c.AbortWithError(status, err)
		return
	}

	logrus.Infof("set draw mode to %s", mode)

	c.IndentedJSON(http.StatusOK, drawModeResponse(mode))
}

func (a *api) streamEvents(c *gin.Context) {
	ch := a.hub.Subscribe()
	defer a.hub.Unsubscribe(ch)

	// Send the current state first so clients need not wait for a change.
	if snap, ok := a.loop.Snapshot(); ok {
		c.SSEvent(events.BatterySnapshot, snap)
		c.Writer.Flush()
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func drawModeResponse(mode display.Mode) types.DrawMode {
	modes := display.Modes()
	names := make([]string, 0, len(modes))
	for _, m := range modes {
		names = append(names, m.String())
	}
	return types.DrawMode{Mode: mode.String(), Modes: names}
}
