package tracker

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// floatsEqual compares slices of float32
func floatsEqual(a, b []float32, epsilon float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if diff := a[i] - b[i]; diff > epsilon || diff < -epsilon {
			return false
		}
	}
	return true
}

// matricesEqual compare matrices
func matricesEqual(a, b mat.Matrix, epsilon float64) bool {
	r1, c1 := a.Dims()
	r2, c2 := b.Dims()

	if r1 != r2 || c1 != c2 {
		return false
	}

	for i := 0; i < r1; i++ {
		for j := 0; j < c1; j++ {
			if diff := a.At(i, j) - b.At(i, j); diff > epsilon || diff < -epsilon {
				return false
			}
		}
	}

	return true
}

// TestKalmanFilter tests for expected output from the Kalman filter.  The
// expected values follow from the constant velocity model with the fixed
// noise constants: after Initiate the covariance is diagonal, so one predict
// step gives per-dimension 2x2 blocks [[1002, 1000], [1000, 1000.01]] and
// the innovation covariance is 1012 per dimension, from which the update
// results are derived in closed form
func TestKalmanFilter(t *testing.T) {

	kf := NewKalmanFilter()

	// Initial state mean and covariance
	mean := make(StateMean, 8)
	covariance := &StateCov{mat.NewDense(8, 8, nil)}

	measurement := DetectBox{100.0, 200.0, 50.0, 80.0}

	// Initialize the filter
	kf.Initiate(mean, covariance, measurement)

	expectedMeanInit := StateMean{100.0, 200.0, 50.0, 80.0, 0.0, 0.0, 0.0, 0.0}

	expectedCovarianceInit := mat.NewDense(8, 8, []float64{
		1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 1.0, 0.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 1.0, 0.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 1000.0, 0.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 1000.0, 0.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1000.0, 0.0,
		0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1000.0,
	})

	if !floatsEqual(mean, expectedMeanInit, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanInit, mean)
	}

	if !matricesEqual(covariance, expectedCovarianceInit, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovarianceInit, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(covariance, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	// Predict the next state.  With zero velocity the mean is unchanged
	kf.Predict(mean, covariance)

	expectedMeanPredict := StateMean{100.0, 200.0, 50.0, 80.0, 0.0, 0.0, 0.0, 0.0}
	expectedCovariancePredict := mat.NewDense(8, 8, []float64{
		1002.0, 0.0, 0.0, 0.0, 1000.0, 0.0, 0.0, 0.0,
		0.0, 1002.0, 0.0, 0.0, 0.0, 1000.0, 0.0, 0.0,
		0.0, 0.0, 1002.0, 0.0, 0.0, 0.0, 1000.0, 0.0,
		0.0, 0.0, 0.0, 1002.0, 0.0, 0.0, 0.0, 1000.0,
		1000.0, 0.0, 0.0, 0.0, 1000.01, 0.0, 0.0, 0.0,
		0.0, 1000.0, 0.0, 0.0, 0.0, 1000.01, 0.0, 0.0,
		0.0, 0.0, 1000.0, 0.0, 0.0, 0.0, 1000.01, 0.0,
		0.0, 0.0, 0.0, 1000.0, 0.0, 0.0, 0.0, 1000.01,
	})

	if !floatsEqual(mean, expectedMeanPredict, 1e-4) {
		t.Errorf("expected mean %v, got %v", expectedMeanPredict, mean)
	}

	if !matricesEqual(covariance, expectedCovariancePredict, 1e-4) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovariancePredict, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(covariance, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	// New measurement
	measurement = DetectBox{105.0, 205.0, 52.0, 82.0}

	// Update the filter with the new measurement
	err := kf.Update(mean, covariance, measurement)

	if err != nil {
		t.Errorf("failed to update: %v", err)
	}

	// gain per dimension is 1002/1012 for position and 1000/1012 for
	// velocity, applied to the innovation [5, 5, 2, 2]
	expectedMeanUpdate := StateMean{
		104.950593, 204.950593, 51.980237, 81.980237,
		4.940711, 4.940711, 1.976285, 1.976285,
	}
	expectedCovarianceUpdate := mat.NewDense(8, 8, []float64{
		9.901186, 0.0, 0.0, 0.0, 9.881423, 0.0, 0.0, 0.0,
		0.0, 9.901186, 0.0, 0.0, 0.0, 9.881423, 0.0, 0.0,
		0.0, 0.0, 9.901186, 0.0, 0.0, 0.0, 9.881423, 0.0,
		0.0, 0.0, 0.0, 9.901186, 0.0, 0.0, 0.0, 9.881423,
		9.881423, 0.0, 0.0, 0.0, 11.867708, 0.0, 0.0, 0.0,
		0.0, 9.881423, 0.0, 0.0, 0.0, 11.867708, 0.0, 0.0,
		0.0, 0.0, 9.881423, 0.0, 0.0, 0.0, 11.867708, 0.0,
		0.0, 0.0, 0.0, 9.881423, 0.0, 0.0, 0.0, 11.867708,
	})

	if !floatsEqual(mean, expectedMeanUpdate, 1e-3) {
		t.Errorf("expected mean %v, got %v", expectedMeanUpdate, mean)
	}

	if !matricesEqual(covariance, expectedCovarianceUpdate, 1e-3) {
		t.Errorf("expected covariance %v, got %v",
			mat.Formatted(expectedCovarianceUpdate, mat.Prefix(""), mat.Excerpt(0)),
			mat.Formatted(covariance, mat.Prefix(""), mat.Excerpt(0)),
		)
	}

	// Predict again, the corrected velocity now carries the mean forward
	kf.Predict(mean, covariance)

	expectedMeanPredict2 := StateMean{
		109.891304, 209.891304, 53.956522, 83.956522,
		4.940711, 4.940711, 1.976285, 1.976285,
	}

	if !floatsEqual(mean, expectedMeanPredict2, 1e-3) {
		t.Errorf("expected mean %v, got %v", expectedMeanPredict2, mean)
	}
}
