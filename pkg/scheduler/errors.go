package scheduler

import (
	"errors"
	"fmt"
)

var (
	ErrCanceled = errors.New("job canceled")
	ErrFailed   = errors.New("job failed")
)

func failed(err error) error {
	return fmt.Errorf("%w: %w", ErrFailed, err)
}
