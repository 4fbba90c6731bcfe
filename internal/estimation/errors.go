package estimation

import "errors"

var (
	// ErrNoTreatmentVariation means every row has the same treatment value
	ErrNoTreatmentVariation = errors.New("estimation: treatment has no variation")
	// ErrNonBinaryTreatment means a treatment value other than 0 or 1 was seen
	ErrNonBinaryTreatment = errors.New("estimation: treatment is not binary")
	// ErrIntervalUnsupported means the fit has too few degrees of freedom for a covariance
	ErrIntervalUnsupported = errors.New("estimation: confidence interval unavailable")
	// ErrSingular means a linear system could not be solved
	ErrSingular = errors.New("estimation: singular design")
)
