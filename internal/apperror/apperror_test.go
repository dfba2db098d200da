package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(base))
	assert.Equal(t, 2, ExitCode(New(Usage, "usage")))
	assert.Equal(t, 4, ExitCode(fmt.Errorf("run: %w", Wrap(InvalidRange, base))))
	assert.Equal(t, 5, ExitCode(Wrap(Fetch, base)))
	assert.Equal(t, 6, ExitCode(Wrap(Parse, base)))
	assert.Equal(t, 1, ExitCode(Wrap(Internal, base)))
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(Fetch, base)

	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, Fetch, err.Code())
	assert.ErrorIs(t, err, base)
}
