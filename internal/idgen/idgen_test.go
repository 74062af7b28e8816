package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	_, err := uuid.Parse(New())
	assert.NoError(t, err)

	restore := Sequence("session")
	assert.Equal(t, "session-1", New())
	assert.Equal(t, "session-2", New())
	restore()

	_, err = uuid.Parse(New())
	assert.NoError(t, err)
}
