package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battray/pkg/types"
)

func (c *Client) GetSnapshot() (*types.Snapshot, error) {
	ret, err := c.Get("/snapshot")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery snapshot")
	}

	var snap types.Snapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery snapshot")
	}
	return &snap, nil
}

func (c *Client) GetSummary() (*types.SummarySnapshot, error) {
	ret, err := c.Get("/summary")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery summary")
	}

	var s types.SummarySnapshot
	if err := json.Unmarshal([]byte(ret), &s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery summary")
	}
	return &s, nil
}

func (c *Client) GetDrawMode() (*types.DrawMode, error) {
	ret, err := c.Get("/draw-mode")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get draw mode")
	}
	return parseDrawMode(ret)
}

// SetDrawMode sends "next", "prev" or a mode name and returns the resulting
// mode.
func (c *Client) SetDrawMode(req string) (*types.DrawMode, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	ret, err := c.Put("/draw-mode", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to set draw mode")
	}
	return parseDrawMode(ret)
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

func parseDrawMode(ret string) (*types.DrawMode, error) {
	var dm types.DrawMode
	if err := json.Unmarshal([]byte(ret), &dm); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal draw mode")
	}
	return &dm, nil
}
