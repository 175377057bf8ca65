package errorhelpers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelError(t *testing.T) {
	assert.NoError(t, LabelError("installing packages", nil))

	cause := errors.New("exit status 1")
	err := fmt.Errorf("setup: %w", LabelError("installing packages", cause))

	assert.EqualError(t, err, "setup: installing packages: exit status 1")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "installing packages", LabelOf(err))
	assert.Empty(t, LabelOf(cause))
}
