/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/resp/writer.go
*/
package resp

import (
	"bufio"
	"io"
	"strconv"
)

// Writer serializes RESP values onto a buffered stream.
// Nothing reaches the underlying writer until Flush is called.
type Writer struct {
	writer *bufio.Writer
}

// NewWriter wraps w in a buffered RESP writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		writer: bufio.NewWriter(w),
	}
}

// Serialize appends the wire form of v to buf.
func Serialize(buf []byte, v *Value) []byte {
	switch v.Typ {
	case ARRAY:
		buf = append(buf, '*')
		buf = strconv.AppendInt(buf, int64(len(v.Arr)), 10)
		buf = append(buf, EOD...)
		for i := range v.Arr {
			buf = Serialize(buf, &v.Arr[i])
		}
	case STRING:
		buf = append(buf, '+')
		buf = append(buf, v.Str...)
		buf = append(buf, EOD...)
	case BULK:
		buf = appendBulk(buf, v.Blk)
	case ERROR:
		buf = append(buf, '-')
		buf = append(buf, v.Err...)
		buf = append(buf, EOD...)
	case INTEGER:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, v.Num, 10)
		buf = append(buf, EOD...)
	case NULLARRAY:
		buf = append(buf, "*-1"+EOD...)
	default:
		buf = append(buf, "$-1"+EOD...)
	}
	return buf
}

func appendBulk(buf []byte, s string) []byte {
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(s)), 10)
	buf = append(buf, EOD...)
	buf = append(buf, s...)
	return append(buf, EOD...)
}

// Write buffers the serialized form of v.
func (w *Writer) Write(v *Value) error {
	_, err := w.writer.Write(Serialize(nil, v))
	return err
}

// WriteCommand buffers args as an array of bulk strings, the form every
// client command takes on the wire.
func (w *Writer) WriteCommand(args []string) error {
	buf := make([]byte, 0, 16*len(args)+16)
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, EOD...)
	for _, a := range args {
		buf = appendBulk(buf, a)
	}
	_, err := w.writer.Write(buf)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.writer.Flush()
}
