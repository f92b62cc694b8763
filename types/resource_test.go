package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatedResource_IsCompliant(t *testing.T) {
	assert.True(t, ValidatedResource{PresentTags: []string{"env"}}.IsCompliant())
	assert.False(t, ValidatedResource{MissingTags: []string{"owner"}}.IsCompliant())
	assert.True(t, ValidatedResource{}.IsCompliant())
}

func TestValidatedResource_HasTag(t *testing.T) {
	r := ValidatedResource{PresentTags: []string{"env", "owner"}}
	assert.True(t, r.HasTag("env"))
	assert.True(t, r.HasTag("owner"))
	assert.False(t, r.HasTag("team"))
	assert.False(t, ValidatedResource{}.HasTag("env"))
}
