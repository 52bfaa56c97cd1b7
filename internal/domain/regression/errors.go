package regression

import "errors"

// Sentinel kinds for regression errors.
var (
	ErrNotEnoughRows  = errors.New("not enough rows to train")
	ErrShapeMismatch  = errors.New("feature matrix and label length differ")
	ErrMissingFeature = errors.New("feature missing from input")
	ErrNotFitted      = errors.New("model is not fitted")
	ErrSingular       = errors.New("normal equations are singular")
)
