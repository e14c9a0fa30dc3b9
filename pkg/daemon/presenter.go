package daemon

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/types"
)

// LogPresenter logs every redraw instead of drawing it. It is used when
// running headless.
type LogPresenter struct {
	Logger logrus.FieldLogger
}

func (p LogPresenter) Present(snap types.Snapshot, mode display.Mode) {
	logger := p.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	logger.WithFields(logrus.Fields{
		"seq":       snap.Seq,
		"mode":      mode,
		"batteries": snap.Summary.Count,
		"charging":  snap.Summary.AnyCharging,
	}).Info(strings.TrimSpace(display.Text(display.Render(snap, mode))))
}

// Presenters fans one redraw out to several presenters in order.
type Presenters []Presenter

func (ps Presenters) Present(snap types.Snapshot, mode display.Mode) {
	for _, p := range ps {
		if p != nil {
			p.Present(snap, mode)
		}
	}
}
