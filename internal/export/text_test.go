package export

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise/buildwise/backend-go/internal/domain"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 30))
	assert.Equal(t, strings.Repeat("x", 30), truncateRunes(strings.Repeat("x", 40), 30))

	// Multibyte content must be cut between characters, not mid-sequence.
	in := strings.Repeat("ü", 40)
	out := truncateRunes(in, 30)
	assert.Equal(t, 30, utf8.RuneCountInString(out))
	assert.True(t, utf8.ValidString(out))

	assert.Equal(t, "", truncateRunes("", 30))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"one"}, splitLines("one"))
	assert.Equal(t, []string{"one", "two", ""}, splitLines("one\ntwo\n"))
}

func TestSelectAreaIncludesZeroSizeObjects(t *testing.T) {
	area := domain.CollaborationArea{AreaID: "a1", X: 0, Y: 0, Width: 100, Height: 100}
	objects := []domain.CanvasObject{
		{ObjectID: "label", Type: domain.ObjectText, X: 50, Y: 50},
		{ObjectID: "corner", Type: domain.ObjectText, X: 0, Y: 0},
		{ObjectID: "edge", Type: domain.ObjectRectangle, X: 100, Y: 50, Width: 30, Height: 30},
		{ObjectID: "outside", Type: domain.ObjectText, X: 101, Y: 50},
	}

	inside, areas, err := selectArea(objects, []domain.CollaborationArea{area}, "a1")
	require.NoError(t, err)
	require.Len(t, areas, 1)

	var ids []string
	for _, obj := range inside {
		ids = append(ids, obj.ObjectID)
	}
	assert.Equal(t, []string{"label", "corner", "edge"}, ids)
}
