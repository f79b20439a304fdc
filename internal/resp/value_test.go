package resp

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadValue_ExecReply(t *testing.T) {
	// what a store answers to EXEC after SET k v ; LPOP k
	raw := "*2\r\n+OK\r\n-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"
	v, err := ReadValue(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	require.Equal(t, ARRAY, v.Typ)
	require.Len(t, v.Arr, 2)
	require.Equal(t, "OK", v.Arr[0].Str)
	require.True(t, v.Arr[1].IsError())
	require.True(t, strings.HasPrefix(v.Arr[1].Err, "WRONGTYPE"))
}

func TestReadValue_Nulls(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("$-1\r\n*-1\r\n*0\r\n"))

	v, err := ReadValue(r)
	require.NoError(t, err)
	require.Equal(t, NULL, v.Typ)
	require.True(t, v.IsNull())

	v, err = ReadValue(r)
	require.NoError(t, err)
	require.Equal(t, NULLARRAY, v.Typ)
	require.True(t, v.IsNull())

	v, err = ReadValue(r)
	require.NoError(t, err)
	require.Equal(t, ARRAY, v.Typ)
	require.Empty(t, v.Arr)
	require.False(t, v.IsNull())
}

func TestReadValue_Malformed(t *testing.T) {
	_, err := ReadValue(bufio.NewReader(strings.NewReader("?what\r\n")))
	require.Error(t, err)

	_, err = ReadValue(bufio.NewReader(strings.NewReader(":abc\r\n")))
	require.Error(t, err)

	// truncated bulk payload
	_, err = ReadValue(bufio.NewReader(strings.NewReader("$10\r\nshort\r\n")))
	require.Error(t, err)
}

func TestWriteCommand_ReadCommand(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteCommand([]string{"SET", "key", "hello world", ""}))
	require.NoError(t, w.Flush())
	require.Equal(t, "*4\r\n$3\r\nSET\r\n$3\r\nkey\r\n$11\r\nhello world\r\n$0\r\n\r\n", buf.String())

	args, err := ReadCommand(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, []string{"SET", "key", "hello world", ""}, args)
}

func TestSerialize_NestedAndNull(t *testing.T) {
	v := NewArrayValue([]Value{
		*NewIntegerValue(3),
		*NewNullValue(),
		*NewBulkArray([]string{"a", "b"}),
	})
	require.Equal(t, "*3\r\n:3\r\n$-1\r\n*2\r\n$1\r\na\r\n$1\r\nb\r\n", string(Serialize(nil, v)))
	require.Equal(t, "*-1\r\n", string(Serialize(nil, NewNullArrayValue())))
}
