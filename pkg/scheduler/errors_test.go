package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailed(t *testing.T) {
	cause := errors.New("hass unavailable")
	err := failed(cause)
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "job failed: hass unavailable", err.Error())
	assert.NotErrorIs(t, err, ErrCanceled)
}
