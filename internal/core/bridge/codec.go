package bridge

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Supported payload encodings.
const (
	EncodingUTF8   = "utf-8"
	EncodingASCII  = "ascii"
	EncodingLatin1 = "latin1"
)

// textCodec converts between wire bytes and payload strings. Decode never
// fails: undecodable input is replaced and reported through clean=false.
type textCodec interface {
	Decode(b []byte) (text string, clean bool)
	Encode(s string) []byte
}

func newTextCodec(name string) (textCodec, error) {
	switch strings.ToLower(name) {
	case "", EncodingUTF8, "utf8":
		return utf8Codec{}, nil
	case EncodingASCII, "us-ascii":
		return asciiCodec{}, nil
	case EncodingLatin1, "iso-8859-1":
		return charmapCodec{cm: charmap.ISO8859_1}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

type utf8Codec struct{}

func (utf8Codec) Decode(b []byte) (string, bool) {
	if utf8.Valid(b) {
		return string(b), true
	}
	// The x/text UTF-8 decoder substitutes U+FFFD for invalid sequences.
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD"), false
	}
	return string(out), false
}

func (utf8Codec) Encode(s string) []byte {
	return []byte(s)
}

type asciiCodec struct{}

func (asciiCodec) Decode(b []byte) (string, bool) {
	clean := true
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= utf8.RuneSelf {
			clean = false
			c = '?'
		}
		sb.WriteByte(c)
	}
	return sb.String(), clean
}

func (asciiCodec) Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r >= utf8.RuneSelf {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return out
}

type charmapCodec struct {
	cm *charmap.Charmap
}

func (c charmapCodec) Decode(b []byte) (string, bool) {
	out, err := c.cm.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD"), false
	}
	return string(out), true
}

func (c charmapCodec) Encode(s string) []byte {
	out, err := encoding.ReplaceUnsupported(c.cm.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// framer splits a byte stream into delimiter-terminated frames, carrying
// incomplete data across reads. With no delimiter every chunk is a frame.
type framer struct {
	delim []byte
	max   int
	buf   []byte
}

func newFramer(delim string, max int) *framer {
	return &framer{delim: []byte(delim), max: max}
}

// push feeds chunk and calls emit for each complete frame. The slice given to
// emit is only valid during the call. It returns the number of frames that
// were flushed early because they exceeded max.
func (f *framer) push(chunk []byte, emit func([]byte)) (oversized int) {
	if len(f.delim) == 0 {
		if len(chunk) > 0 {
			emit(chunk)
		}
		return 0
	}

	f.buf = append(f.buf, chunk...)
	start := 0
	for {
		idx := bytes.Index(f.buf[start:], f.delim)
		if idx < 0 {
			break
		}
		if idx > 0 {
			emit(f.buf[start : start+idx])
		}
		start += idx + len(f.delim)
	}

	n := copy(f.buf, f.buf[start:])
	f.buf = f.buf[:n]

	if f.max > 0 && len(f.buf) > f.max {
		emit(f.buf)
		f.buf = f.buf[:0]
		oversized++
	}
	return oversized
}

// pending returns the number of buffered bytes without a terminating delimiter.
func (f *framer) pending() int {
	return len(f.buf)
}

func (f *framer) reset() {
	f.buf = f.buf[:0]
}
