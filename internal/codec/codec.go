/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/codec/codec.go
*/

// Package codec converts Go values to command arguments and RESP replies back
// to Go values.
//
// Scalars (strings, byte slices, integers, floats, booleans) travel as their
// textual form; anything else is JSON.
package codec

import (
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/akashmaji946/go-redis-tx/internal/resp"
	"github.com/pkg/errors"
)

// Encode returns the wire form of v.
func Encode(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errors.New("codec: cannot encode nil")
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrapf(err, "codec: cannot encode %T", v)
	}
	return string(b), nil
}

// Decode converts a scalar reply into T.
//
// A null reply yields the zero value of T; when T is a pointer type that
// means nil, which lets callers tell a missing key from an empty value.
// Decoding into resp.Value returns the reply untouched.
func Decode[T any](v resp.Value) (T, error) {
	var out T
	if p, ok := any(&out).(*resp.Value); ok {
		*p = v
		return out, nil
	}
	if v.IsError() {
		return out, errors.Errorf("codec: cannot decode error reply %q", v.Err)
	}
	if v.IsNull() {
		return out, nil
	}
	if v.Typ == resp.ARRAY {
		return out, errors.Errorf("codec: cannot decode array reply into %T", out)
	}
	text, _ := v.Text()

	rv := reflect.ValueOf(&out).Elem()
	if rv.Kind() == reflect.Pointer {
		elem := reflect.New(rv.Type().Elem())
		if err := decodeText(text, elem.Interface()); err != nil {
			return out, err
		}
		rv.Set(elem)
		return out, nil
	}
	if err := decodeText(text, &out); err != nil {
		return out, err
	}
	return out, nil
}

// decodeText fills the value target points to from text.
func decodeText(text string, target any) error {
	var err error
	switch p := target.(type) {
	case *string:
		*p = text
	case *[]byte:
		*p = []byte(text)
	case *int:
		*p, err = strconv.Atoi(text)
	case *int64:
		*p, err = strconv.ParseInt(text, 10, 64)
	case *int32:
		var n int64
		n, err = strconv.ParseInt(text, 10, 32)
		*p = int32(n)
	case *uint64:
		*p, err = strconv.ParseUint(text, 10, 64)
	case *float64:
		*p, err = strconv.ParseFloat(text, 64)
	case *float32:
		var f float64
		f, err = strconv.ParseFloat(text, 32)
		*p = float32(f)
	case *bool:
		*p, err = parseBool(text)
	default:
		err = json.Unmarshal([]byte(text), target)
	}
	if err != nil {
		return errors.Wrapf(err, "codec: cannot decode %q into %T", text, target)
	}
	return nil
}

// parseBool accepts the integer replies of HEXISTS-like commands as well as
// the textual form Encode produces.
func parseBool(text string) (bool, error) {
	switch text {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return strconv.ParseBool(text)
}

// DecodeSlice converts an array reply into []T. A null reply yields nil.
func DecodeSlice[T any](v resp.Value) ([]T, error) {
	if v.IsNull() {
		return nil, nil
	}
	if v.Typ != resp.ARRAY {
		return nil, errors.Errorf("codec: expected array reply, got %q", v.Typ)
	}
	out := make([]T, 0, len(v.Arr))
	for i, e := range v.Arr {
		x, err := Decode[T](e)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, x)
	}
	return out, nil
}

// DecodeMap converts a flat field, value, field, value... array reply into a map.
func DecodeMap[T any](v resp.Value) (map[string]T, error) {
	if v.IsNull() {
		return map[string]T{}, nil
	}
	if v.Typ != resp.ARRAY {
		return nil, errors.Errorf("codec: expected array reply, got %q", v.Typ)
	}
	if len(v.Arr)%2 != 0 {
		return nil, errors.Errorf("codec: odd number of elements (%d) in map reply", len(v.Arr))
	}
	out := make(map[string]T, len(v.Arr)/2)
	for i := 0; i < len(v.Arr); i += 2 {
		field, ok := v.Arr[i].Text()
		if !ok {
			return nil, errors.Errorf("codec: field %d is not a string", i/2)
		}
		x, err := Decode[T](v.Arr[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", field)
		}
		out[field] = x
	}
	return out, nil
}
