package tracker

// Detection represents one detector output box for a single frame.  It is
// ephemeral input, the tracker does not hold on to it beyond one Update call
type Detection struct {
	// Rect is the bounding box of the detected object
	Rect Rect
	// Score is the confidence/probability of the detection in [0,1]
	Score float32
	// Label is the class label of the object detected, eg: "person"
	Label string
}

// NewDetection is a constructor function for the Detection struct
func NewDetection(rect Rect, score float32, label string) Detection {
	return Detection{
		Rect:  rect,
		Score: score,
		Label: label,
	}
}

// Valid returns whether the detection box is well formed, that is all
// coordinates are finite and the box is not inverted
func (d *Detection) Valid() bool {
	return d.Rect.IsFinite() && d.Rect.Width() >= 0 && d.Rect.Height() >= 0
}
