package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/resp"
)

func bulkArray(parts ...string) resp.Frame {
	items := make([]resp.Frame, len(parts))
	for i, p := range parts {
		items[i] = resp.BulkString([]byte(p))
	}
	return resp.Array(items)
}

func TestParseUppercasesVerb(t *testing.T) {
	cmd, err := command.Parse(bulkArray("get", "foo"))
	require.NoError(t, err)
	assert.Equal(t, "GET", cmd.Name)
	assert.Equal(t, [][]byte{[]byte("foo")}, cmd.Args)
}

func TestParseRejectsNonArray(t *testing.T) {
	_, err := command.Parse(resp.BulkString([]byte("GET")))
	assert.ErrorIs(t, err, resp.ErrProtocol)
}

func TestParseRejectsEmptyArray(t *testing.T) {
	_, err := command.Parse(resp.Array(nil))
	assert.ErrorIs(t, err, resp.ErrProtocol)
}

func TestParseRejectsNullArray(t *testing.T) {
	_, err := command.Parse(resp.NullArray())
	assert.ErrorIs(t, err, resp.ErrProtocol)
}
