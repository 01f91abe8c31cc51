package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newNotOwner(42))

	assert.ErrorIs(t, err, ErrNotOwner)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodeNotOwner, CodeOf(err))
}

func TestError_Messages(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: record not found (key=7)", newNotFound(7).Error())
	assert.Equal(t, "MISSING_FIELD: required field missing (fields=name,topic)",
		newMissingField([]string{"name", "topic"}).Error())
	assert.Equal(t, "IO_ERROR: save failed: disk full", newIOError(errors.New("disk full")).Error())
	assert.Equal(t, "NO_ACTIVE_IDENTITY: no active identity", ErrNoActiveIdentity.Error())
	assert.Equal(t, "NOT_OWNER: not owner", (&Error{Code: CodeNotOwner}).Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := newIOError(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrIO)
}

func TestCodeOf_NonLedgerError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.False(t, IsRejection(nil))
	assert.False(t, IsRejection(newIOError(errors.New("x"))))
	assert.True(t, IsRejection(ErrRecordReferenced))
}
