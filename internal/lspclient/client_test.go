package lspclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestUriPathRoundTrip(t *testing.T) {
	path := "/home/user/project/main.cpp"
	uri := PathToURI(path)
	assert.Equal(t, path, UriToPath(uri))
}

func TestOffsetToPositionAndBack(t *testing.T) {
	content := []rune("line one\nline two\nline three")
	offset := len("line one\nline ")
	pos := OffsetToPosition(content, offset)
	assert.Equal(t, protocol.UInteger(1), pos.Line)
	assert.Equal(t, protocol.UInteger(5), pos.Character)

	back := PositionToOffset(content, pos)
	assert.Equal(t, offset, back)
}

func TestPositionToOffsetClampsOutOfRangeLine(t *testing.T) {
	content := []rune("only one line")
	pos := protocol.Position{Line: 99, Character: 3}
	offset := PositionToOffset(content, pos)
	assert.Equal(t, 3, offset)
}

func TestPositionToOffsetClampsLongCharacter(t *testing.T) {
	content := []rune("short\nlonger line here")
	pos := protocol.Position{Line: 0, Character: 999}
	offset := PositionToOffset(content, pos)
	assert.Equal(t, len("short"), offset)
}

func TestUnconfiguredClientIsNoOp(t *testing.T) {
	c := New()
	ctx := context.Background()

	h, err := c.Hover(ctx, "file:///a.cpp", protocol.Position{})
	require.NoError(t, err)
	assert.Nil(t, h)

	locs, err := c.Declaration(ctx, "file:///a.cpp", protocol.Position{})
	require.NoError(t, err)
	assert.Nil(t, locs)

	// DidOpen/DidClose/DidChange must not panic without a backing process.
	c.DidOpen(ctx, "file:///a.cpp", "cpp", "int main() {}")
	c.DidChange(ctx, "file:///a.cpp", "int main() { return 0; }")
	c.DidClose(ctx, "file:///a.cpp")

	require.NoError(t, c.Shutdown(ctx))
}
