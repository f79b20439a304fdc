package codec

import (
	"testing"

	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestEncode(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"foo", "foo"},
		{[]byte("bar"), "bar"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(9), "9"},
		{2.5, "2.5"},
		{true, "true"},
		{person{Name: "ada", Age: 36}, `{"name":"ada","age":36}`},
	}
	for _, tc := range tests {
		got, err := Encode(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := Encode(make(chan int))
	require.Error(t, err)

	_, err = Encode(nil)
	require.Error(t, err)
}

func TestDecodeScalars(t *testing.T) {
	s, err := Decode[string](*resp.NewBulkValue("foobar"))
	require.NoError(t, err)
	assert.Equal(t, "foobar", s)

	n, err := Decode[int](*resp.NewIntegerValue(12))
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n64, err := Decode[int64](*resp.NewBulkValue("-3"))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), n64)

	f, err := Decode[float64](*resp.NewBulkValue("1.5"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	b, err := Decode[bool](*resp.NewIntegerValue(1))
	require.NoError(t, err)
	assert.True(t, b)

	ok, err := Decode[string](*resp.NewStringValue("OK"))
	require.NoError(t, err)
	assert.Equal(t, "OK", ok)
}

func TestDecodeNull(t *testing.T) {
	s, err := Decode[string](*resp.NewNullValue())
	require.NoError(t, err)
	assert.Equal(t, "", s)

	p, err := Decode[*string](*resp.NewNullValue())
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = Decode[*string](*resp.NewBulkValue("x"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}

func TestDecodeJSON(t *testing.T) {
	got, err := Decode[person](*resp.NewBulkValue(`{"name":"ada","age":36}`))
	require.NoError(t, err)
	assert.Equal(t, person{Name: "ada", Age: 36}, got)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode[int](*resp.NewBulkValue("foobar"))
	require.Error(t, err)

	_, err = Decode[string](*resp.NewErrorValue("ERR boom"))
	require.Error(t, err)

	_, err = Decode[string](*resp.NewBulkArray([]string{"a"}))
	require.Error(t, err)
}

func TestDecodeRaw(t *testing.T) {
	in := *resp.NewErrorValue("WRONGTYPE x")
	got, err := Decode[resp.Value](in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestDecodeSliceAndMap(t *testing.T) {
	list, err := DecodeSlice[int](*resp.NewBulkArray([]string{"1", "2", "3"}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, list)

	_, err = DecodeSlice[int](*resp.NewBulkArray([]string{"1", "x"}))
	require.Error(t, err)

	m, err := DecodeMap[string](*resp.NewBulkArray([]string{"a", "1", "b", "2"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

	_, err = DecodeMap[string](*resp.NewBulkArray([]string{"a"}))
	require.Error(t, err)

	nilList, err := DecodeSlice[string](*resp.NewNullValue())
	require.NoError(t, err)
	assert.Nil(t, nilList)
}
