package report

import (
	"bytes"
	"testing"
)

func TestProgressBar(t *testing.T) {
	t.Parallel()

	t.Run("completes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		b := NewProgressBar(&buf)
		b.Start(3)
		for i := 0; i < 3; i++ {
			b.Done()
		}
		b.Wait(true)
	})
	t.Run("aborted run does not block", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		b := NewProgressBar(&buf)
		b.Start(3)
		b.Done()
		b.Wait(false)
	})
	t.Run("empty inventory", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		b := NewProgressBar(&buf)
		b.Start(0)
		b.Done()
		b.Wait(true)
	})
}
