package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DetectBox represents a 1x4 matrix using a slice of float32, holding a
// measurement in Xywh (center x, center y, width, height) form
type DetectBox []float32

// StateMean represents a 1x8 matrix using a slice of float32
type StateMean []float32

// StateCov represents an 8x8 matrix
type StateCov struct {
	*mat.Dense
}

// StateHMean represents a 1x4 matrix using a slice of float32
type StateHMean []float32

// StateHCov represents a 4x4 matrix
type StateHCov struct {
	*mat.SymDense
}

const (
	// variance of the initial position/size estimate
	initPositionVar = 1.0
	// variance of the initial velocity estimate, the velocities are
	// unobservable at creation
	initVelocityVar = 1000.0
	// measurement noise variance
	measurementVar = 10.0
	// process noise variance for the position/size terms
	processPositionVar = 1.0
	// process noise variance for the velocity terms
	processVelocityVar = 0.01
)

// KalmanFilter implements a linear Kalman filter with a constant velocity
// motion model over the state [cx, cy, w, h, vcx, vcy, vw, vh].  Only the
// position/size terms are directly observed, the velocity terms are inferred
type KalmanFilter struct {
	// motionMat is the 8x8 state transition matrix
	motionMat *mat.Dense
	// updateMat is the 4x8 observation matrix
	updateMat *mat.Dense
	// processNoise is the 8x8 process noise covariance
	processNoise *mat.Dense
	// measurementNoise is the 4x4 observation noise covariance
	measurementNoise *mat.SymDense
}

// NewKalmanFilter initializes and returns a new KalmanFilter
func NewKalmanFilter() *KalmanFilter {

	ndim := 4
	dt := float64(1.0)

	// constant velocity model, position/size advance by their derivative
	// each step and the derivatives are unchanged
	motionMat := mat.NewDense(8, 8, nil)

	for i := 0; i < 8; i++ {
		motionMat.Set(i, i, 1.0)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, dt)
	}

	// observation matrix selecting the position/size terms
	updateMat := mat.NewDense(4, 8, nil)

	for i := 0; i < 4; i++ {
		updateMat.Set(i, i, 1.0)
	}

	processNoise := mat.NewDense(8, 8, nil)

	for i := 0; i < 4; i++ {
		processNoise.Set(i, i, processPositionVar)
		processNoise.Set(ndim+i, ndim+i, processVelocityVar)
	}

	measurementNoise := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		measurementNoise.SetSym(i, i, measurementVar)
	}

	return &KalmanFilter{
		motionMat:        motionMat,
		updateMat:        updateMat,
		processNoise:     processNoise,
		measurementNoise: measurementNoise,
	}
}

// Initiate initializes the state mean and covariance from an initial
// measurement
func (kf *KalmanFilter) Initiate(mean StateMean, covariance *StateCov,
	measurement DetectBox) {

	// copy the measurement into the position/size part of the mean
	copy(mean[:4], measurement[:4])

	// set the last four elements of the mean to 0 (velocity components)
	for i := 4; i < 8; i++ {
		mean[i] = 0.0
	}

	// set the diagonal elements of the covariance matrix
	for i := 0; i < 4; i++ {
		covariance.Set(i, i, initPositionVar)
		covariance.Set(4+i, 4+i, initVelocityVar)
	}
}

// Predict predicts the next state mean and covariance
func (kf *KalmanFilter) Predict(mean StateMean, covariance *StateCov) {

	// convert the mean state vector to a matrix for multiplication
	meanVec := mat.NewVecDense(8, nil)

	for i := 0; i < 8; i++ {
		meanVec.SetVec(i, float64(mean[i]))
	}

	meanMat := mat.NewDense(8, 1, meanVec.RawVector().Data)

	// predict the next state mean using the motion model
	meanMat.Mul(kf.motionMat, meanMat)

	for i := 0; i < 8; i++ {
		mean[i] = float32(meanMat.At(i, 0))
	}

	// predict the next state covariance using the motion model and inflate
	// by the process noise
	cov := covariance.Dense
	cov.Mul(kf.motionMat, cov)
	cov.Mul(cov, kf.motionMat.T())
	cov.Add(cov, kf.processNoise)
}

// Update updates the state mean and covariance with a new measurement
func (kf *KalmanFilter) Update(mean StateMean, covariance *StateCov,
	measurement DetectBox) error {

	// project the state mean and covariance to measurement space
	projectedMean, projectedCov := kf.project(mean, covariance)

	// perform Cholesky factorization of the projected covariance matrix
	chol := mat.Cholesky{}

	if ok := chol.Factorize(projectedCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// compute the matrix B for Kalman gain calculation
	B := mat.NewDense(8, 4, nil)
	B.Mul(covariance.Dense, kf.updateMat.T())

	// compute the Kalman gain using the Cholesky factorization
	var kalmanGain mat.Dense
	err := chol.SolveTo(&kalmanGain, B.T())

	if err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	// compute the innovation (measurement residual)
	innovation := make([]float64, 4)

	for i := 0; i < 4; i++ {
		innovation[i] = float64(measurement[i] - projectedMean[i])
	}

	// update the state mean with the innovation
	innovationVec := mat.NewVecDense(4, innovation)
	tmp := mat.NewVecDense(8, nil)
	tmp.MulVec(kalmanGain.T(), innovationVec)

	for i := 0; i < 8; i++ {
		mean[i] += float32(tmp.AtVec(i))
	}

	// update the state covariance
	temp := mat.NewDense(8, 4, nil)
	temp.Mul(kalmanGain.T(), projectedCov)

	temp2 := mat.NewDense(8, 8, nil)
	temp2.Mul(temp, &kalmanGain)

	newCov := mat.NewDense(8, 8, nil)
	newCov.Sub(covariance.Dense, temp2)

	covariance.Dense = newCov

	return nil
}

// project projects the state mean and covariance to measurement space
func (kf *KalmanFilter) project(mean StateMean,
	covariance *StateCov) (StateHMean, *StateHCov) {

	// project the state mean to measurement space
	projectedMeanVec := mat.NewVecDense(4, nil)
	projectedMeanVec.MulVec(
		kf.updateMat, mat.NewVecDense(8, func() []float64 {
			data := make([]float64, 8)
			for i, v := range mean {
				data[i] = float64(v)
			}
			return data
		}()),
	)

	// project the state covariance to measurement space
	projectedCov := mat.NewSymDense(4, nil)
	temp := mat.NewDense(4, 8, nil)
	temp.Mul(kf.updateMat, covariance.Dense)
	temp2 := mat.NewDense(4, 4, nil)
	temp2.Mul(temp, kf.updateMat.T())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			projectedCov.SetSym(i, j, temp2.At(i, j))
		}
	}

	// add the measurement noise to the projected covariance
	projectedCov.AddSym(projectedCov, kf.measurementNoise)

	// convert the projected mean to StateHMean type
	projectedMean := make(StateHMean, 4)

	for i := 0; i < 4; i++ {
		projectedMean[i] = float32(projectedMeanVec.AtVec(i))
	}

	return projectedMean, &StateHCov{projectedCov}
}
