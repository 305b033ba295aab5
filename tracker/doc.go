/*
Package tracker implements SORT-style multi-object tracking, assigning a
stable identity to each detected object frame over frame.

Each live track owns a linear Kalman filter with a constant velocity motion
model.  Every frame the tracker predicts the expected position of all live
tracks, pairs predictions with new detections by solving the optimal
assignment over an IoU cost matrix (LAPJV), updates matched tracks, spawns
tracks for unmatched detections and retires tracks that have gone unmatched
for too long.

Tracking is purely motion/geometry based, the tracker does not know or care
how detections were produced.
*/
package tracker
