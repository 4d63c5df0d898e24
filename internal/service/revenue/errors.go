package revenue

import "errors"

var ErrTripNotFound = errors.New("trip not found")
