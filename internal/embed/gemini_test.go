package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelPath_AddsPrefixWhenMissing(t *testing.T) {
	assert.Equal(t, "models/embedding-001", modelPath("embedding-001"))
}

func TestModelPath_LeavesQualifiedModelUnchanged(t *testing.T) {
	assert.Equal(t, "models/embedding-001", modelPath("models/embedding-001"))
}

func TestNewGeminiEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiEmbedder(t.Context(), &GeminiConfig{})
	assert.Error(t, err)
}
