package tracker

import (
	"errors"
)

// errSolverFailed indicates the LAP solver returned an invalid result
var errSolverFailed = errors.New("assignment solver returned an invalid result")

// buildIoUMatrix builds the D x T matrix of IoU scores between detection
// boxes and the current box estimate of each live track
func buildIoUMatrix(dets []Detection, tracks []*Track) [][]float32 {

	if len(dets)*len(tracks) == 0 {
		return nil
	}

	ious := make([][]float32, len(dets))

	for d := range dets {
		ious[d] = make([]float32, len(tracks))

		for t, track := range tracks {
			box := track.CurrentBox()
			ious[d][t] = dets[d].Rect.CalcIoU(box)
		}
	}

	return ious
}

// assignDetectionsToTracks solves the one-to-one pairing between detections
// and tracks that maximizes total IoU, then rejects any assigned pair whose
// IoU falls below the threshold.  An IoU exactly equal to the threshold
// counts as a valid match.  The three returned sets are disjoint.  A solver
// failure degrades to no matches found rather than an error
func assignDetectionsToTracks(ious [][]float32, numDets, numTracks int,
	iouThreshold float32) (matches [][2]int, unmatchedDets,
	unmatchedTracks []int) {

	// nothing to solve when either side is empty
	if numDets == 0 || numTracks == 0 || len(ious) == 0 {
		for d := 0; d < numDets; d++ {
			unmatchedDets = append(unmatchedDets, d)
		}
		for t := 0; t < numTracks; t++ {
			unmatchedTracks = append(unmatchedTracks, t)
		}
		return
	}

	rowsol, err := solveRectangular(ious, numDets, numTracks)

	if err != nil {
		for d := 0; d < numDets; d++ {
			unmatchedDets = append(unmatchedDets, d)
		}
		for t := 0; t < numTracks; t++ {
			unmatchedTracks = append(unmatchedTracks, t)
		}
		return
	}

	matchedTracks := make([]bool, numTracks)

	for d, t := range rowsol {
		// reject a globally optimal pairing that is still a poor match
		if t >= 0 && ious[d][t] >= iouThreshold {
			matches = append(matches, [2]int{d, t})
			matchedTracks[t] = true
		} else {
			unmatchedDets = append(unmatchedDets, d)
		}
	}

	for t := 0; t < numTracks; t++ {
		if !matchedTracks[t] {
			unmatchedTracks = append(unmatchedTracks, t)
		}
	}

	return
}

// solveRectangular solves the rectangular assignment problem of maximizing
// the total IoU of assigned pairs.  The IoU matrix is converted to a 1-IoU
// cost matrix, extended to a square matrix padded with dummy assignments and
// solved with LAPJV.  rowsol[d] holds the column assigned to detection d, or
// -1 when the detection was assigned to a dummy column
func solveRectangular(ious [][]float32, nRows, nCols int) ([]int, error) {

	n := nRows + nCols

	// find the maximum cost so padding cells are never preferred over a
	// real assignment
	costMax := float64(0)

	for i := range ious {
		for j := range ious[i] {
			c := float64(1 - ious[i][j])
			if c > costMax {
				costMax = c
			}
		}
	}

	cost := make([][]float64, n)

	for i := range cost {
		cost[i] = make([]float64, n)

		for j := range cost[i] {
			cost[i][j] = costMax + 1
		}
	}

	// dummy rows may pair with dummy columns for free
	for i := nRows; i < n; i++ {
		for j := nCols; j < n; j++ {
			cost[i][j] = 0
		}
	}

	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			cost[i][j] = float64(1 - ious[i][j])
		}
	}

	x := make([]int, n)
	y := make([]int, n)

	ret, err := solveLap(n, cost, x, y)

	if ret != 0 || err != nil {
		if err != nil {
			return nil, err
		}
		return nil, errSolverFailed
	}

	rowsol := make([]int, nRows)

	for i := 0; i < nRows; i++ {
		if x[i] >= nCols {
			rowsol[i] = -1
		} else {
			rowsol[i] = x[i]
		}
	}

	return rowsol, nil
}
