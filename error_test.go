package harvest_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := harvest.Errorf(harvest.ENOTFOUND, "field %q not declared", "title")

	assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))
	assert.Equal(t, "field \"title\" not declared", harvest.ErrorMessage(err))
}

func TestErrorCode_Wrapped(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("extract title: %w", harvest.Errorf(harvest.EINVALID, "bad selector"))

	assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	assert.Equal(t, "bad selector", harvest.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, harvest.EINTERNAL, harvest.ErrorCode(err))
	assert.Equal(t, "Internal error.", harvest.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, harvest.ErrorCode(nil))
	assert.Empty(t, harvest.ErrorMessage(nil))
}
