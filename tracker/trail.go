package tracker

import "sync"

// Point represents the x,y coordinates of the center of a tracked bounding
// box
type Point struct {
	X, Y int
}

// history holds the recorded center points for one track ID
type history struct {
	points []Point
}

// Trail keeps a bounded history of track center points keyed by track ID,
// used for drawing motion trails
type Trail struct {
	// size is the maximum number of most recent points to keep per track
	size int
	// tracks holds the point history per track ID
	tracks map[int]*history
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size specifies the maximum
// number of most recent points to keep per track
func NewTrail(size int) *Trail {
	return &Trail{
		size:   size,
		tracks: make(map[int]*history),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.tracks = make(map[int]*history)
}

// Add records the center point of a tracked object's bounding box
func (t *Trail) Add(obj TrackedObject) {
	t.Lock()
	defer t.Unlock()

	if _, exists := t.tracks[obj.TrackID]; !exists {
		t.tracks[obj.TrackID] = &history{}
	}

	track := t.tracks[obj.TrackID]

	track.points = append(track.points, Point{
		X: (obj.Box[0] + obj.Box[2]) / 2,
		Y: (obj.Box[1] + obj.Box[3]) / 2,
	})

	// drop the oldest point once the bound is exceeded
	if len(track.points) > t.size {
		track.points = track.points[1:]
	}
}

// GetPoints gets the point history for a specific track ID
func (t *Trail) GetPoints(id int) []Point {
	t.Lock()
	defer t.Unlock()

	if _, exists := t.tracks[id]; exists {
		return t.tracks[id].points
	}

	// no history yet
	return nil
}
