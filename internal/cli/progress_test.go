package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwhitford/sortinghat/internal/model"
)

func TestProgressRendererCallback(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewProgressRenderer(&buf)
	callback := renderer.Callback()

	callback(model.Progress{Processed: 2, Total: 10})
	callback(model.Progress{Processed: 5, Total: 10})
	// Duplicate updates carry no delta and must not rewind the bar.
	callback(model.Progress{Processed: 5, Total: 10})
	callback(model.Progress{Processed: 10, Total: 10})
	renderer.Finish()

	assert.Equal(t, 10, renderer.last)
	assert.NotEmpty(t, buf.String())
}
