package resp

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestSerializeGolden(t *testing.T) {
	g := newGoldie(t)

	exec := NewArrayValue([]Value{
		*NewStringValue("OK"),
		*NewIntegerValue(1),
		*NewNullValue(),
		*NewErrorValue("WRONGTYPE Operation against a key holding the wrong kind of value"),
		*NewBulkValue("hello"),
	})
	g.Assert(t, "exec_reply", Serialize(nil, exec))
	g.Assert(t, "cas_abort", Serialize(nil, NewNullArrayValue()))
}

func TestWriteCommandGolden(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteCommand([]string{"SET", "k", "hello"}))
	require.NoError(t, w.WriteCommand([]string{"EXEC"}))
	require.Zero(t, buf.Len())
	require.NoError(t, w.Flush())

	newGoldie(t).Assert(t, "commands", buf.Bytes())
}
