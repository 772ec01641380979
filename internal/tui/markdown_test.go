package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Diagnosis\n\nThe instance is **healthy**.")

	assert.Contains(t, out, "Diagnosis")
	assert.Contains(t, out, "healthy")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRenderMarkdownEmpty(t *testing.T) {
	out := RenderMarkdown("")
	assert.True(t, strings.HasSuffix(out, "\n"))
}
