package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"notblank"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

func TestValidate(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&sample{Title: "Standup"}))

	err := v.Validate(&sample{Title: "   ", Limit: 500})
	require.Error(t, err)
	fields := Fields(err)
	assert.Equal(t, "notblank", fields["title"])
	assert.Equal(t, "max", fields["limit"])
}
