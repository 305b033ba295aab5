package tracker

import (
	"fmt"
	"math"
)

const (
	// coastingScore is the reported confidence for a confirmed track that
	// has no fresh detection in the current frame
	coastingScore = 0.5
)

// Config holds the tracker parameters, fixed for the lifetime of a Tracker
type Config struct {
	// MaxAge is the number of frames of tolerated absence before a track
	// is deleted
	MaxAge int
	// MinHits is the number of consecutive matches required before a track
	// is confirmed and reported
	MinHits int
	// IoUThreshold is the minimum IoU for a detection/track pairing to be
	// accepted as a match
	IoUThreshold float32
}

// DefaultConfig returns the default tracker parameters
func DefaultConfig() Config {
	return Config{
		MaxAge:       30,
		MinHits:      3,
		IoUThreshold: 0.3,
	}
}

// TrackedObject is one confirmed track reported for the current frame
type TrackedObject struct {
	// Box is the bounding box in pixel coordinates (x1, y1, x2, y2)
	Box [4]int
	// TrackID is the persistent identity of the object, stable across
	// consecutive frames while the object remains tracked
	TrackID int
	// Score is the confidence in [0,1] of the matched detection, or a
	// neutral value when the track is coasting without a fresh match
	Score float32
	// Label is the class label, eg: "person"
	Label string
}

// Tracker assigns stable identities to detections frame over frame.  It owns
// the set of live tracks and drives the per-frame cycle of predict, match,
// update, spawn, prune and emit.
//
// A Tracker is a single-threaded, non-reentrant state machine.  Each camera
// stream must own its own instance with its own id space, and Update must
// not be called concurrently
type Tracker struct {
	// maximum frames a track may go unmatched before removal
	maxAge int
	// consecutive matches required before a track is reported
	minHits int
	// minimum match quality
	iouThreshold float32
	// current frame number
	frameCount int
	// counter for assigning unique track IDs
	trackIDCount int
	// list of currently live tracks
	tracks []*Track
}

// NewTracker initializes and returns a new Tracker.  Misconfiguration is the
// only fatal error in this component and is reported here, never mid-stream
func NewTracker(cfg Config) (*Tracker, error) {

	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("configuration error: MaxAge must be positive, got %d",
			cfg.MaxAge)
	}

	if cfg.MinHits <= 0 {
		return nil, fmt.Errorf("configuration error: MinHits must be positive, got %d",
			cfg.MinHits)
	}

	thr := float64(cfg.IoUThreshold)

	if math.IsNaN(thr) || thr < 0 || thr > 1 {
		return nil, fmt.Errorf("configuration error: IoUThreshold must be within [0,1], got %v",
			cfg.IoUThreshold)
	}

	return &Tracker{
		maxAge:       cfg.MaxAge,
		minHits:      cfg.MinHits,
		iouThreshold: cfg.IoUThreshold,
	}, nil
}

// Reset clears the live tracks, the frame counter and the track ID counter.
// IDs issued after a reset are not guaranteed distinct from IDs issued
// before it
func (tk *Tracker) Reset() {
	tk.frameCount = 0
	tk.trackIDCount = 0
	tk.tracks = nil
}

// FrameCount returns the number of frames processed since creation or the
// last Reset
func (tk *Tracker) FrameCount() int {
	return tk.frameCount
}

// TrackCount returns the number of currently live tracks, confirmed or
// tentative
func (tk *Tracker) TrackCount() int {
	return len(tk.tracks)
}

// Update runs the per-frame cycle with the detections of the current frame
// and returns the confirmed tracks.  Malformed detections are dropped
// individually and a numerical failure inside a track removes that track
// only, the cycle itself never fails.
//
// The returned slice is owned by the caller, but is rebuilt every frame so
// downstream consumers holding on to it across cycles must copy it
func (tk *Tracker) Update(detections []Detection) []TrackedObject {

	tk.frameCount++

	// drop malformed detections, the caller's slice is left untouched
	dets := make([]Detection, 0, len(detections))

	for _, det := range detections {
		if det.Valid() {
			dets = append(dets, det)
		}
	}

	// predict the next position of every live track, removing any track
	// whose estimate diverged
	live := make([]*Track, 0, len(tk.tracks))

	for _, t := range tk.tracks {
		box := t.Predict()

		if box.IsFinite() {
			live = append(live, t)
		}
	}

	tk.tracks = live

	// match detections to tracks
	matches, unmatchedDets, _ := assignDetectionsToTracks(
		buildIoUMatrix(dets, tk.tracks),
		len(dets), len(tk.tracks), tk.iouThreshold,
	)

	// update matched tracks.  A failed correction step is treated the same
	// as a diverged estimate, the track is removed, never the whole cycle
	failed := make(map[int]bool)

	for _, m := range matches {
		if err := tk.tracks[m[1]].Observe(dets[m[0]]); err != nil {
			failed[m[1]] = true
		}
	}

	if len(failed) > 0 {
		kept := make([]*Track, 0, len(tk.tracks))

		for i, t := range tk.tracks {
			if !failed[i] {
				kept = append(kept, t)
			}
		}

		tk.tracks = kept
	}

	// spawn a new track for every unmatched detection.  A box with finite
	// corners can still overflow to a non-finite center form, such a seed is
	// discarded without consuming an id
	for _, di := range unmatchedDets {
		t := NewTrack(dets[di], tk.trackIDCount+1)
		seed := t.CurrentBox()

		if !seed.IsFinite() {
			continue
		}

		tk.trackIDCount++
		tk.tracks = append(tk.tracks, t)
	}

	// prune tracks that have gone unmatched for too long
	kept := make([]*Track, 0, len(tk.tracks))

	for _, t := range tk.tracks {
		if t.TimeSinceUpdate() <= tk.maxAge {
			kept = append(kept, t)
		}
	}

	tk.tracks = kept

	// emit confirmed tracks.  During the tracker's first minHits frames
	// tracks are reported immediately so the system is not silent at
	// startup
	tracked := make([]TrackedObject, 0, len(tk.tracks))

	for _, t := range tk.tracks {

		if t.HitStreak() < tk.minHits && tk.frameCount > tk.minHits {
			continue
		}

		score := t.Score()

		if t.TimeSinceUpdate() > 0 {
			score = coastingScore
		}

		cur := t.CurrentBox()
		box := cur.GetTlbr()

		tracked = append(tracked, TrackedObject{
			Box: [4]int{
				int(box[0]), int(box[1]), int(box[2]), int(box[3]),
			},
			TrackID: t.TrackID(),
			Score:   score,
			Label:   t.Label(),
		})
	}

	return tracked
}
