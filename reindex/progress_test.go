package reindex

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	t.Run("reports at the configured interval", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 10, 5)
		tracker.Start()

		tracker.Increment(3)
		assert.Empty(t, out.String())

		tracker.Increment(2)
		assert.Contains(t, out.String(), "5/10")
	})

	t.Run("finish reports full progress", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 10, 100)
		tracker.Start()
		tracker.Increment(7)
		tracker.Finish()

		assert.Contains(t, out.String(), "10/10")
		assert.Contains(t, out.String(), "100.0%")
	})

	t.Run("caps progress at total", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 10, 1)
		tracker.Start()
		tracker.Increment(15)

		assert.Contains(t, out.String(), "10/10")
		assert.False(t, strings.Contains(out.String(), "15/10"))
	})

	t.Run("ignores updates before start", func(t *testing.T) {
		var out bytes.Buffer
		tracker := NewProgressTracker(&out, 10, 1)
		tracker.Increment(5)
		tracker.Finish()
		assert.Empty(t, out.String())
	})

	t.Run("elapsed is zero before start", func(t *testing.T) {
		tracker := NewProgressTracker(&bytes.Buffer{}, 10, 1)
		assert.Zero(t, tracker.Elapsed())
	})
}
