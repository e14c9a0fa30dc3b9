package daemon

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/types"
	"github.com/charlie0129/battray/pkg/utils/ptr"
)

func TestLogPresenter(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	LogPresenter{Logger: logger}.Present(types.Snapshot{
		Seq:     7,
		Summary: types.SummarySnapshot{Count: 1, Percent: ptr.To(42.0)},
	}, display.ModeTotal)

	out := buf.String()
	assert.Contains(t, out, "42.00%")
	assert.Contains(t, out, "seq=7")
	assert.Contains(t, out, "mode=total")
}

func TestPresenters(t *testing.T) {
	var got []display.Mode
	rec := PresenterFunc(func(_ types.Snapshot, mode display.Mode) {
		got = append(got, mode)
	})

	Presenters{rec, nil, rec}.Present(types.Snapshot{}, display.ModeWear)
	assert.Equal(t, []display.Mode{display.ModeWear, display.ModeWear}, got)
}
