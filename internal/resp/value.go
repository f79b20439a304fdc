/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/resp/value.go
*/

// Package resp implements the RESP (Redis Serialization Protocol) values
// exchanged between the datasource and the store, on both sides of the wire.
package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ValueType represents the type of a RESP value.
// Each type corresponds to a specific RESP protocol prefix character.
type ValueType string

// RESP protocol line ending used for parsing and serialization.
const EOD string = "\r\n"

// RESP protocol value type constants.
// These constants define the prefix characters used in the RESP protocol
// to identify different value types in serialized format.
const (
	BULK    ValueType = "$" // Bulk string: $<length>\r\n<data>\r\n
	STRING  ValueType = "+" // Simple string: +<data>\r\n
	ARRAY   ValueType = "*" // Array: *<count>\r\n<elements>...
	ERROR   ValueType = "-" // Error: -<error message>\r\n
	INTEGER ValueType = ":" // Integer: :<number>\r\n

	NULL      ValueType = ""   // Null bulk string: $-1\r\n
	NULLARRAY ValueType = "*-" // Null array: *-1\r\n (EXEC aborted by WATCH)
)

// Value represents a parsed RESP protocol value.
// Only the field matching Typ is meaningful:
//   - BULK: Blk holds the string data
//   - STRING: Str holds the simple string
//   - ARRAY: Arr holds the elements
//   - ERROR: Err holds the error message (prefix included, e.g. "WRONGTYPE ...")
//   - INTEGER: Num holds the number
//   - NULL / NULLARRAY: no payload
type Value struct {
	Typ ValueType

	Blk string
	Str string
	Arr []Value
	Err string
	Num int64
}

// NewStringValue creates a simple string value (+OK).
func NewStringValue(s string) *Value {
	return &Value{Typ: STRING, Str: s}
}

// NewBulkValue creates a bulk string value.
func NewBulkValue(s string) *Value {
	return &Value{Typ: BULK, Blk: s}
}

// NewErrorValue creates an error value. msg should carry its own prefix.
func NewErrorValue(msg string) *Value {
	return &Value{Typ: ERROR, Err: msg}
}

// NewIntegerValue creates an integer value.
func NewIntegerValue(n int64) *Value {
	return &Value{Typ: INTEGER, Num: n}
}

// NewNullValue creates a null bulk string.
func NewNullValue() *Value {
	return &Value{Typ: NULL}
}

// NewNullArrayValue creates a null array.
func NewNullArrayValue() *Value {
	return &Value{Typ: NULLARRAY}
}

// NewArrayValue creates an array value from its elements.
func NewArrayValue(elems []Value) *Value {
	return &Value{Typ: ARRAY, Arr: elems}
}

// NewBulkArray creates an array of bulk strings.
func NewBulkArray(items []string) *Value {
	arr := make([]Value, len(items))
	for i, s := range items {
		arr[i] = Value{Typ: BULK, Blk: s}
	}
	return &Value{Typ: ARRAY, Arr: arr}
}

// IsError reports whether v is an error reply.
func (v Value) IsError() bool {
	return v.Typ == ERROR
}

// IsNull reports whether v is a null bulk string or a null array.
func (v Value) IsNull() bool {
	return v.Typ == NULL || v.Typ == NULLARRAY
}

// Text returns the textual payload of a bulk, simple string or integer value.
func (v Value) Text() (string, bool) {
	switch v.Typ {
	case BULK:
		return v.Blk, true
	case STRING:
		return v.Str, true
	case INTEGER:
		return strconv.FormatInt(v.Num, 10), true
	}
	return "", false
}

// String renders v the way redis-cli would, for logs and the shell.
func (v Value) String() string {
	switch v.Typ {
	case BULK:
		return strconv.Quote(v.Blk)
	case STRING:
		return v.Str
	case INTEGER:
		return "(integer) " + strconv.FormatInt(v.Num, 10)
	case ERROR:
		return "(error) " + v.Err
	case NULL, NULLARRAY:
		return "(nil)"
	case ARRAY:
		if len(v.Arr) == 0 {
			return "(empty array)"
		}
		var sb strings.Builder
		for i, e := range v.Arr {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%d) %s", i+1, e.String())
		}
		return sb.String()
	}
	return "(unknown)"
}

// ReadLine reads a line from a buffered reader and removes the trailing "\r\n".
func ReadLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, EOD), nil
}

// ReadValue reads one complete RESP value of any type from reader.
//
// Behavior:
//   - Dispatches on the first byte of the line (+ - : $ *)
//   - $-1 becomes NULL, *-1 becomes NULLARRAY
//   - Arrays are read recursively, so nested replies (EXEC) are supported
//
// Returns an error on I/O failure or malformed input; the stream must be
// considered unusable afterwards.
func ReadValue(reader *bufio.Reader) (Value, error) {
	line, err := ReadLine(reader)
	if err != nil {
		return Value{}, err
	}
	if len(line) == 0 {
		return Value{}, errors.Errorf("resp: empty line")
	}

	prefix, payload := line[0], line[1:]
	switch prefix {
	case '+':
		return Value{Typ: STRING, Str: payload}, nil
	case '-':
		return Value{Typ: ERROR, Err: payload}, nil
	case ':':
		n, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Value{}, errors.Errorf("resp: bad integer %q", payload)
		}
		return Value{Typ: INTEGER, Num: n}, nil
	case '$':
		n, err := strconv.Atoi(payload)
		if err != nil {
			return Value{}, errors.Errorf("resp: bad bulk length %q", payload)
		}
		if n < 0 {
			return Value{Typ: NULL}, nil
		}
		buf := make([]byte, n+2) // data + \r\n
		if _, err := io.ReadFull(reader, buf); err != nil {
			return Value{}, err
		}
		return Value{Typ: BULK, Blk: string(buf[:n])}, nil
	case '*':
		n, err := strconv.Atoi(payload)
		if err != nil {
			return Value{}, errors.Errorf("resp: bad array length %q", payload)
		}
		if n < 0 {
			return Value{Typ: NULLARRAY}, nil
		}
		arr := make([]Value, 0, n)
		for range n {
			elem, err := ReadValue(reader)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, elem)
		}
		return Value{Typ: ARRAY, Arr: arr}, nil
	}
	return Value{}, errors.Errorf("resp: unknown type %q", prefix)
}

// ReadCommand reads a client command (an array of bulk strings) and returns
// its arguments. The command name is not normalized.
func ReadCommand(reader *bufio.Reader) ([]string, error) {
	v, err := ReadValue(reader)
	if err != nil {
		return nil, err
	}
	if v.Typ != ARRAY {
		return nil, errors.Errorf("resp: expected array command, got %q", v.Typ)
	}
	args := make([]string, 0, len(v.Arr))
	for _, e := range v.Arr {
		s, ok := e.Text()
		if !ok {
			return nil, errors.Errorf("resp: invalid command argument type %q", e.Typ)
		}
		args = append(args, s)
	}
	return args, nil
}
