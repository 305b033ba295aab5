package tracker

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Track represents one hypothesized physical object maintained across
// frames.  It owns the motion estimate for that object along with the
// lifecycle counters used by the Tracker to confirm and retire it
type Track struct {
	// Kalman filter used for motion estimation
	kalmanFilter *KalmanFilter
	// Mean state vector [cx, cy, w, h, vcx, vcy, vw, vh]
	mean StateMean
	// Covariance matrix
	covariance StateCov
	// Bounding box of the tracked object
	rect Rect
	// Unique ID for the track, assigned once at creation and never reused
	trackID int
	// Class label carried through from the seeding detection
	label string
	// Score of the most recent matched detection
	score float32
	// Frames since creation
	age int
	// Total number of frames matched to a detection
	hits int
	// Consecutive frames matched without a miss
	hitStreak int
	// Frames since the last successful match
	timeSinceUpdate int
}

// NewTrack creates a new Track seeded at the given detection box
func NewTrack(det Detection, trackID int) *Track {

	t := &Track{
		kalmanFilter: NewKalmanFilter(),
		mean:         make(StateMean, 8),
		covariance:   StateCov{mat.NewDense(8, 8, nil)},
		rect: NewRect(det.Rect.X(), det.Rect.Y(),
			det.Rect.Width(), det.Rect.Height()),
		trackID:      trackID,
		label:        det.Label,
		score:        det.Score,
	}

	t.kalmanFilter.Initiate(t.mean, &t.covariance, DetectBox(det.Rect.GetXywh()))

	return t
}

// Predict advances the motion estimate one frame using the constant velocity
// model and returns the predicted bounding box.  A track that has gone one
// or more frames without a match has its hit streak reset before the miss
// counter is incremented
func (t *Track) Predict() Rect {

	// keep the filter numerically well-posed when the size estimate
	// collapses
	if t.mean[2]+t.mean[3] <= 0 {
		t.mean[2] = 1
	}

	t.kalmanFilter.Predict(t.mean, &t.covariance)

	t.age++

	if t.timeSinceUpdate > 0 {
		t.hitStreak = 0
	}

	t.timeSinceUpdate++

	t.updateRect()

	return t.rect
}

// Observe corrects the motion estimate with a newly matched detection box
// and records the detection score for reporting
func (t *Track) Observe(det Detection) error {

	err := t.kalmanFilter.Update(t.mean, &t.covariance,
		DetectBox(det.Rect.GetXywh()))

	if err != nil {
		return fmt.Errorf("error observing detection: %w", err)
	}

	t.updateRect()

	t.timeSinceUpdate = 0
	t.hits++
	t.hitStreak++
	t.score = det.Score

	return nil
}

// CurrentBox returns the best current box estimate in corner form, derived
// from the state vector without mutating it
func (t *Track) CurrentBox() Rect {
	return GenerateRectByXywh(Xywh{t.mean[0], t.mean[1], t.mean[2], t.mean[3]})
}

// TrackID returns the unique ID for the track
func (t *Track) TrackID() int {
	return t.trackID
}

// Label returns the class label of the tracked object
func (t *Track) Label() string {
	return t.label
}

// Score returns the score of the most recent matched detection
func (t *Track) Score() float32 {
	return t.score
}

// Age returns the number of frames since the track was created
func (t *Track) Age() int {
	return t.age
}

// Hits returns the total number of frames matched to a detection
func (t *Track) Hits() int {
	return t.hits
}

// HitStreak returns the number of consecutive frames matched without a miss
func (t *Track) HitStreak() int {
	return t.hitStreak
}

// TimeSinceUpdate returns the number of frames since the last successful
// match
func (t *Track) TimeSinceUpdate() int {
	return t.timeSinceUpdate
}

// updateRect updates the cached bounding box from the state mean
func (t *Track) updateRect() {
	t.rect.Tlwh[2] = t.mean[2]
	t.rect.Tlwh[3] = t.mean[3]
	t.rect.Tlwh[0] = t.mean[0] - t.mean[2]/2
	t.rect.Tlwh[1] = t.mean[1] - t.mean[3]/2
}
