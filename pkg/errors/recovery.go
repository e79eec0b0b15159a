package errors

import (
	"fmt"
)

// Guard runs fn and converts a panic raised inside it into an AppError with
// ErrCodeRender, so one failing section cannot take down its caller.
func Guard(section string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = Wrap(cause, ErrCodeRender, fmt.Sprintf("%s panicked", section)).
				WithContext("section", section)
		}
	}()

	return fn()
}
