package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArbiter(t *testing.T) {
	t.Run("poll active until the stream connects", func(t *testing.T) {
		a := NewArbiter("job-1")
		assert.True(t, a.PollActive())

		a.StreamUp()
		assert.False(t, a.PollActive())
	})

	t.Run("poll resumes when the stream drops", func(t *testing.T) {
		a := NewArbiter("job-1")
		a.StreamUp()
		a.StreamDown()

		assert.True(t, a.PollActive())
	})

	t.Run("repeated signals are idempotent", func(t *testing.T) {
		a := NewArbiter("job-1")
		a.StreamUp()
		a.StreamUp()
		assert.False(t, a.PollActive())

		a.StreamDown()
		a.StreamDown()
		assert.True(t, a.PollActive())
	})
}
