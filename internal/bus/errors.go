package bus

import "errors"

// ErrMissingType — в конверте не указано имя order.
var ErrMissingType = errors.New("message type is empty")
