package subscription

import "errors"

// Sentinel errors for the subscription service layer.
var (
	ErrEmailExists = errors.New("email already exists")
)
