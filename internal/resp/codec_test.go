package resp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/resp"
)

func roundTrip(t *testing.T, f resp.Frame) resp.Frame {
	t.Helper()
	wire := resp.Bytes(f)
	got, n, err := resp.Parse(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	return got
}

func TestRoundTripSimpleString(t *testing.T) {
	got := roundTrip(t, resp.SimpleString("OK"))
	assert.Equal(t, resp.KindSimpleString, got.Kind)
	assert.Equal(t, []byte("OK"), got.Str)
}

func TestRoundTripError(t *testing.T) {
	got := roundTrip(t, resp.Error("WRONGTYPE bad"))
	assert.Equal(t, resp.KindError, got.Kind)
	assert.True(t, got.IsError())
}

func TestRoundTripInteger(t *testing.T) {
	got := roundTrip(t, resp.Integer(-42))
	assert.Equal(t, int64(-42), got.Int)
}

func TestRoundTripBulkString(t *testing.T) {
	got := roundTrip(t, resp.BulkString([]byte("foobar")))
	assert.Equal(t, []byte("foobar"), got.Str)
	assert.False(t, got.Null)
}

func TestRoundTripNullBulk(t *testing.T) {
	got := roundTrip(t, resp.NullBulk())
	assert.True(t, got.IsNil())
}

func TestRoundTripArray(t *testing.T) {
	f := resp.Array([]resp.Frame{
		resp.BulkString([]byte("foo")),
		resp.BulkString([]byte("bar")),
		resp.Integer(7),
	})
	got := roundTrip(t, f)
	require.Len(t, got.Array, 3)
	assert.Equal(t, []byte("foo"), got.Array[0].Str)
	assert.Equal(t, int64(7), got.Array[2].Int)
}

func TestRoundTripNullArray(t *testing.T) {
	got := roundTrip(t, resp.NullArray())
	assert.True(t, got.IsNil())
}

func TestRoundTripRESP3Types(t *testing.T) {
	assert.Equal(t, resp.KindNull, roundTrip(t, resp.Null()).Kind)

	b := roundTrip(t, resp.Boolean(true))
	assert.True(t, b.Bool)

	d := roundTrip(t, resp.DoubleFrame(3.25))
	assert.Equal(t, 3.25, d.Double)

	m := roundTrip(t, resp.MapFrame(
		[]resp.Frame{resp.SimpleString("a")},
		[]resp.Frame{resp.Integer(1)},
	))
	require.Len(t, m.MapKeys, 1)
	assert.Equal(t, int64(1), m.MapVals[0].Int)

	s := roundTrip(t, resp.SetFrame([]resp.Frame{resp.Integer(1), resp.Integer(2)}))
	require.Len(t, s.Array, 2)
}

func TestParseIncompleteReturnsSentinel(t *testing.T) {
	_, _, err := resp.Parse([]byte("$5\r\nfoo"))
	assert.ErrorIs(t, err, resp.ErrIncomplete)
}

func TestParseMalformedIsProtocolError(t *testing.T) {
	_, _, err := resp.Parse([]byte("X garbage\r\n"))
	assert.ErrorIs(t, err, resp.ErrProtocol)
}

func TestParseConsumesExactlyOneFrameFromPipeline(t *testing.T) {
	buf := append(resp.Bytes(resp.SimpleString("OK")), resp.Bytes(resp.Integer(5))...)
	first, n, err := resp.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, resp.KindSimpleString, first.Kind)

	second, _, err := resp.Parse(buf[n:])
	require.NoError(t, err)
	assert.Equal(t, int64(5), second.Int)
}
