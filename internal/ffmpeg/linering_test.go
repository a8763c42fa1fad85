// SPDX-License-Identifier: MIT

package ffmpeg

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRingWrap(t *testing.T) {
	r := NewLineRing(3)

	_, _ = fmt.Fprintf(r, "one\n")
	_, _ = fmt.Fprintf(r, "two\n")
	assert.Equal(t, []string{"one", "two"}, r.LastN(10))

	_, _ = fmt.Fprintf(r, "three\n")
	assert.Equal(t, []string{"one", "two", "three"}, r.LastN(10))

	// Oldest line falls off once the ring is full.
	_, _ = fmt.Fprintf(r, "four\n")
	assert.Equal(t, []string{"two", "three", "four"}, r.LastN(10))
	assert.Equal(t, []string{"three", "four"}, r.LastN(2))
}

func TestLineRingMultiLineChunk(t *testing.T) {
	r := NewLineRing(5)
	_, _ = r.Write([]byte("foo\nbar\n"))
	assert.Equal(t, []string{"foo", "bar"}, r.LastN(10))
}

func TestLineRingSkipsEmptyLines(t *testing.T) {
	r := NewLineRing(5)
	_, _ = r.Write([]byte("\n\nalpha\n\nbeta\n"))
	assert.Equal(t, []string{"alpha", "beta"}, r.LastN(10))
}

func TestLineRingMinimumCapacity(t *testing.T) {
	r := NewLineRing(0)
	_, _ = r.Write([]byte("kept\n"))
	assert.Equal(t, []string{"kept"}, r.LastN(1))
}
