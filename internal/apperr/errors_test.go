package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/fossil/internal/apperr"
)

func TestPathErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("take snapshot: %w", apperr.Path("hash", "docs/a.txt", apperr.ErrSourceFileMissing))

	assert.True(t, errors.Is(err, apperr.ErrSourceFileMissing))
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
	assert.EqualError(t, err, `take snapshot: hash "docs/a.txt": tracked source file is missing`)

	var pe *apperr.PathError
	if assert.True(t, errors.As(err, &pe)) {
		assert.Equal(t, "docs/a.txt", pe.Path)
		assert.Equal(t, "hash", pe.Op)
	}
}
