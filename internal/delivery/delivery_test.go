package delivery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInlineWhenShort(t *testing.T) {
	plan := Build("hello", "world", "out.txt")

	assert.False(t, plan.HasFile())
	assert.Equal(t, "hello\n\nworld", plan.Inline)
}

func TestBuildInlineAtThreshold(t *testing.T) {
	content := strings.Repeat("a", MaxInline)

	plan := Build(content, "", "out.txt")

	assert.False(t, plan.HasFile())
	assert.Equal(t, content, plan.Inline)
}

func TestBuildFileJustOverThreshold(t *testing.T) {
	content := strings.Repeat("a", MaxInline+1)

	plan := Build(content, "", "out.txt")

	assert.True(t, plan.HasFile())
	assert.Equal(t, "out.txt", plan.FileName)
	assert.Equal(t, content, plan.FileContent)
	assert.Equal(t, "Output too long, attached as `out.txt`.", plan.Inline)
}

func TestBuildFileAt2000Chars(t *testing.T) {
	content := strings.Repeat("x", 2000)

	plan := Build(content, "", "out.txt")

	assert.True(t, plan.HasFile())
}

func TestBuildFileShortPrimaryShownInIntro(t *testing.T) {
	primary := "Short summary"
	secondary := strings.Repeat("w", 2500)

	plan := Build(primary, secondary, "details.txt")

	assert.True(t, plan.HasFile())
	assert.Contains(t, plan.Inline, primary)
	assert.Contains(t, plan.Inline, "additional details in attached file `details.txt`")
	assert.Contains(t, plan.FileContent, secondary)
}

func TestBuildFileSecondaryOnly(t *testing.T) {
	plan := Build("", strings.Repeat("w", 2500), "details.txt")

	assert.True(t, plan.HasFile())
	assert.Equal(t, "Details attached as `details.txt`.", plan.Inline)
}

func TestBuildEmptyContentPlaceholder(t *testing.T) {
	plan := Build("", "", "out.txt")

	assert.False(t, plan.HasFile())
	assert.Equal(t, Placeholder, plan.Inline)
}

func TestBuildWhitespaceOnlyPlaceholder(t *testing.T) {
	plan := Build("  \n", "\t", "out.txt")

	assert.False(t, plan.HasFile())
	assert.Equal(t, Placeholder, plan.Inline)
}

func TestBuildNoDoubledSeparator(t *testing.T) {
	plan := Build("primary\n\n", "secondary", "out.txt")

	assert.Equal(t, "primary\n\nsecondary", plan.Inline)
}
