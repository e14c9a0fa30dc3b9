package daemon

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/events"
)

type api struct {
	loop *Loop
	hub  *events.Hub
}

// setupRoutes builds the local API. A nil gatherer disables /metrics.
func setupRoutes(loop *Loop, hub *events.Hub, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	a := &api{loop: loop, hub: hub}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/snapshot", a.getSnapshot)
	router.GET("/summary", a.getSummary)
	router.GET("/batteries", a.getBatteries)
	router.GET("/draw-mode", a.getDrawMode)
	router.PUT("/draw-mode", a.setDrawMode)
	router.GET("/events", a.streamEvents)
	router.GET("/version", getVersion)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return router
}
