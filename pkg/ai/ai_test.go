package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelClassification(t *testing.T) {
	assert.True(t, IsPersonLabel("Person"))
	assert.False(t, IsPersonLabel("organization"))

	assert.True(t, IsTopicLabel("project", false))
	assert.True(t, IsTopicLabel("Product", false))
	assert.False(t, IsTopicLabel("organization", false))
	assert.True(t, IsTopicLabel("organization", true))
	assert.False(t, IsTopicLabel("deadline", true))
}

func TestDisabledCollaborators(t *testing.T) {
	e := NewDisabledEmbedder(768)
	_, err := e.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, 768, e.Dimension())

	_, err = NewDisabledExtractor().Extract(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrDisabled)
}
