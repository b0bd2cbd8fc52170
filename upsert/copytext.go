package upsert

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"
)

// copyNull is the sentinel COPY reads as SQL NULL in text format. Escaping
// below guarantees no data value collides with it: a literal backslash is
// always doubled in the stream.
const copyNull = `\N`

// appendCopyRow renders one record as a COPY text line: tab-delimited
// fields terminated by a newline.
func appendCopyRow(dst []byte, row []any) ([]byte, error) {
	for i, v := range row {
		if i > 0 {
			dst = append(dst, '\t')
		}
		var err error
		dst, err = appendCopyField(dst, v)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
	}
	return append(dst, '\n'), nil
}

func appendCopyField(dst []byte, v any) ([]byte, error) {
	if v == nil {
		return append(dst, copyNull...), nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		inner, err := valuer.Value()
		if err != nil {
			return nil, fmt.Errorf("resolve driver value: %w", err)
		}
		return appendCopyField(dst, inner)
	}
	switch v := v.(type) {
	case string:
		return appendEscaped(dst, v), nil
	case []byte:
		// bytea hex input form; the leading backslash is escaped for COPY.
		dst = append(dst, `\\x`...)
		return append(dst, hex.EncodeToString(v)...), nil
	case bool:
		if v {
			return append(dst, 't'), nil
		}
		return append(dst, 'f'), nil
	case int:
		return strconv.AppendInt(dst, int64(v), 10), nil
	case int8:
		return strconv.AppendInt(dst, int64(v), 10), nil
	case int16:
		return strconv.AppendInt(dst, int64(v), 10), nil
	case int32:
		return strconv.AppendInt(dst, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(dst, v, 10), nil
	case uint:
		return strconv.AppendUint(dst, uint64(v), 10), nil
	case uint8:
		return strconv.AppendUint(dst, uint64(v), 10), nil
	case uint16:
		return strconv.AppendUint(dst, uint64(v), 10), nil
	case uint32:
		return strconv.AppendUint(dst, uint64(v), 10), nil
	case uint64:
		return strconv.AppendUint(dst, v, 10), nil
	case float32:
		return strconv.AppendFloat(dst, float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.AppendFloat(dst, v, 'g', -1, 64), nil
	case time.Time:
		return v.AppendFormat(dst, "2006-01-02 15:04:05.999999999Z07:00"), nil
	default:
		return appendEscaped(dst, fmt.Sprintf("%v", v)), nil
	}
}

func appendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// CopyReader streams a batch as COPY text lines, encoding one row at a
// time. The stream is finite and single-pass: once drained it cannot be
// rewound, but a fresh reader over the same rows regenerates it.
type CopyReader struct {
	rows [][]any
	next int
	buf  []byte
	err  error
}

func NewCopyReader(rows [][]any) *CopyReader {
	return &CopyReader{rows: rows}
}

func (r *CopyReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.next >= len(r.rows) {
			return 0, io.EOF
		}
		buf, err := appendCopyRow(r.buf[:0], r.rows[r.next])
		if err != nil {
			r.err = fmt.Errorf("row %d: %w", r.next, err)
			return 0, r.err
		}
		r.buf = buf
		r.next++
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
