package progression

import "errors"

// ErrInvalidPlayer is returned when a call carries an empty player id.
var ErrInvalidPlayer = errors.New("invalid player id")
