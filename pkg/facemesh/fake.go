package facemesh

import (
	"ExpressionAPI/internal/entity"
	"context"

	"gocv.io/x/gocv"
)

type fakeDetector struct {
	sets []entity.LandmarkSet
	err  error
}

// NewFake returns a detector that answers every frame with sets, or with
// ErrNoFace when sets is empty.
func NewFake(sets ...entity.LandmarkSet) Detector {
	return &fakeDetector{sets: sets}
}

// NewFailing returns a detector whose every call fails with err.
func NewFailing(err error) Detector {
	return &fakeDetector{err: err}
}

func (d *fakeDetector) Detect(_ context.Context, _ gocv.Mat) ([]entity.LandmarkSet, error) {
	if d.err != nil {
		return nil, d.err
	}
	if len(d.sets) == 0 {
		return nil, ErrNoFace
	}
	return d.sets, nil
}

func (d *fakeDetector) Close() error {
	return nil
}
