package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Faultbox/splatgen/pkg/encoding"
)

// reader reads little-endian fields and remembers the first error, so
// parsers can check once per section instead of per field.
type reader struct {
	r         *bytes.Reader
	err       error
	truncated error // reported for short reads
}

func newReader(data []byte, truncated error) *reader {
	return &reader{r: bytes.NewReader(data), truncated: truncated}
}

func (r *reader) read(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		r.err = r.truncated
	}
}

func (r *reader) int32() int32 {
	var v int32
	r.read(&v)
	return v
}

func (r *reader) uint32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

// string reads a fixed-length, NUL-terminated EUC-KR string.
func (r *reader) string(length int) string {
	buf := make([]byte, length)
	r.read(buf)
	if r.err != nil {
		return ""
	}
	return encoding.FixedStringToUTF8(buf)
}

func (r *reader) skip(n int64) {
	if r.err != nil {
		return
	}
	if int64(r.r.Len()) < n {
		r.err = r.truncated
		return
	}
	r.r.Seek(n, io.SeekCurrent)
}

// count reads an element count and validates it against limit.
func (r *reader) count(what string, limit int32) int {
	n := r.int32()
	if r.err == nil && (n < 0 || n > limit) {
		r.err = fmt.Errorf("%w: %d %s", ErrInvalidElementCount, n, what)
	}
	if r.err != nil {
		return 0
	}
	return int(n)
}

// makeN returns nil for n == 0 so absent sections stay nil.
func makeN[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, n)
}
