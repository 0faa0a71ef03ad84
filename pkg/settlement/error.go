package settlement

import "errors"

var (
	errOrderNotFound = errors.New("order not found")
	errUserNotFound  = errors.New("user not found")
)
