package battery

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/device"
)

// Registry owns every battery Record, in enumeration order. Indices are only
// stable between two rebuilds.
type Registry struct {
	enumerator device.Enumerator
	opener     device.Opener
	records    []*Record
	rebuilds   int
}

// NewRegistry returns an empty registry. Call Build to populate it.
func NewRegistry(enumerator device.Enumerator, opener device.Opener) *Registry {
	return &Registry{
		enumerator: enumerator,
		opener:     opener,
	}
}

// Count enumerates the battery devices and returns how many are present.
func (r *Registry) Count() (int, error) {
	paths, err := r.enumerate()
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

// Build enumerates the battery devices and opens one record per path,
// replacing any existing records.
func (r *Registry) Build() error {
	paths, err := r.enumerate()
	if err != nil {
		return err
	}
	r.rebuild(paths)
	return nil
}

// RefreshTopology enumerates once and rebuilds from that same enumeration if
// the number of devices differs from the number of records. Existing records
// and handles are left untouched when the count is unchanged. On enumeration
// failure the current records are kept.
func (r *Registry) RefreshTopology() (bool, error) {
	paths, err := r.enumerate()
	if err != nil {
		return false, err
	}

	if len(paths) == len(r.records) {
		return false, nil
	}

	logrus.WithFields(logrus.Fields{
		"previous": len(r.records),
		"current":  len(paths),
	}).Info("battery topology changed, rebuilding")

	r.rebuild(paths)
	return true, nil
}

// Records returns the current records. The slice must not be retained
// across a rebuild.
func (r *Registry) Records() []*Record {
	return r.records
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Rebuilds returns how many times the collection was replaced.
func (r *Registry) Rebuilds() int {
	return r.rebuilds
}

// Close releases every record and empties the registry.
func (r *Registry) Close() error {
	var firstErr error
	for _, rec := range r.records {
		if err := rec.Release(); err != nil {
			logrus.WithFields(logrus.Fields{
				"path":  rec.Path(),
				"error": err,
			}).Warn("failed to release battery device")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	r.records = nil
	return firstErr
}

func (r *Registry) enumerate() ([]string, error) {
	paths, err := r.enumerator.Enumerate()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to enumerate battery devices")
	}
	return paths, nil
}

func (r *Registry) rebuild(paths []string) {
	_ = r.Close()

	records := make([]*Record, 0, len(paths))
	for _, p := range paths {
		records = append(records, NewRecord(r.opener, p))
	}
	r.records = records
	r.rebuilds++

	logrus.WithField("count", len(records)).Debug("battery registry built")
}
