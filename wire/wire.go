// Package wire implements the tag-length-value stream exchanged between a
// crashing process and its reporter sidecar. Values are little-endian and
// self-delimited; the reader never aborts, all failures surface through a
// sticky good flag.
package wire

import (
	"encoding/binary"
	"io"
	"sort"
)

// Tag identifies the payload that follows it on the stream.
type Tag uint32

const (
	Start Tag = iota + 1
	Signal
	UncaughtException
	Assert
	Library
	PC
	Breadcrumb
	Context
	Finish
)

const (
	// MaxString is the hard cap on string payloads. Oversize strings are
	// written as empty rather than truncated.
	MaxString = 8192
	// MaxBreadcrumb bounds a breadcrumb message body on the wire.
	MaxBreadcrumb = 1024
)

// Writer encodes primitives onto a byte sink. It performs no buffering of
// its own and keeps no per-value heap state, so it is usable from the fault
// path where only direct writes to the pipe are allowed.
type Writer struct {
	out io.Writer
	buf [8]byte
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Tag(t Tag) {
	w.Uint32(uint32(t))
}

func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.out.Write(w.buf[:4])
}

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.out.Write(w.buf[:8])
}

// Bytes writes a u32 length prefix followed by the raw bytes. A payload
// whose length does not fit the prefix is clamped to zero length.
func (w *Writer) Bytes(data []byte) {
	n := len(data)
	if uint64(n) >= 1<<32 {
		n = 0
	}
	w.Uint32(uint32(n))
	if n > 0 {
		w.out.Write(data[:n])
	}
}

// String writes s like Bytes, emitting the empty string when s exceeds
// MaxString. Truncation is deliberately not attempted: it would need a copy
// buffer the fault path cannot afford.
func (w *Writer) String(s string) {
	if len(s) > MaxString {
		w.Uint32(0)
		return
	}
	w.Uint32(uint32(len(s)))
	if len(s) > 0 {
		io.WriteString(w.out, s)
	}
}

// BreadcrumbMessage writes at most MaxBreadcrumb bytes of msg.
func (w *Writer) BreadcrumbMessage(msg []byte) {
	if len(msg) > MaxBreadcrumb {
		msg = msg[:MaxBreadcrumb]
	}
	w.Bytes(msg)
}

// Strings writes a u32 element count followed by the elements in order.
func (w *Writer) Strings(xs []string) {
	w.Uint32(uint32(len(xs)))
	for _, x := range xs {
		w.String(x)
	}
}

// StringMap writes a u32 entry count followed by key then value per entry,
// in sorted key order so the stream is deterministic.
func (w *Writer) StringMap(m map[string]string) {
	w.Uint32(uint32(len(m)))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.String(k)
		w.String(m[k])
	}
}

// Reader decodes the stream. Every read returns the supplied default on a
// short read or framing error, and once the good flag drops it stays down.
type Reader struct {
	in   io.Reader
	buf  [8]byte
	good bool
}

func NewReader(in io.Reader) *Reader {
	return &Reader{in: in, good: true}
}

// Good reports whether every read so far framed correctly.
func (r *Reader) Good() bool {
	return r.good
}

func (r *Reader) fill(n int) bool {
	if !r.good {
		return false
	}
	if _, err := io.ReadFull(r.in, r.buf[:n]); err != nil {
		r.good = false
		return false
	}
	return true
}

func (r *Reader) Tag(def Tag) Tag {
	return Tag(r.Uint32(uint32(def)))
}

func (r *Reader) Uint32(def uint32) uint32 {
	if !r.fill(4) {
		return def
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

func (r *Reader) Uint64(def uint64) uint64 {
	if !r.fill(8) {
		return def
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

func (r *Reader) Bytes(def []byte) []byte {
	n := r.Uint32(0)
	if !r.good {
		return def
	}
	if n > MaxString {
		// nobody legitimately writes these; treat as framing error
		r.good = false
		return def
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.in, data); err != nil {
		r.good = false
		return def
	}
	return data
}

func (r *Reader) String(def string) string {
	data := r.Bytes(nil)
	if !r.good {
		return def
	}
	return string(data)
}

func (r *Reader) Strings(def []string) []string {
	n := r.Uint32(0)
	if !r.good {
		return def
	}
	xs := make([]string, 0, minCount(n))
	for i := uint32(0); r.good && i < n; i++ {
		xs = append(xs, r.String(""))
	}
	if !r.good {
		return def
	}
	return xs
}

func (r *Reader) StringMap(def map[string]string) map[string]string {
	n := r.Uint32(0)
	if !r.good {
		return def
	}
	m := make(map[string]string, minCount(n))
	for i := uint32(0); r.good && i < n; i++ {
		k := r.String("")
		v := r.String("")
		m[k] = v
	}
	if !r.good {
		return def
	}
	return m
}

// minCount bounds pre-allocation so a corrupt count cannot balloon memory.
func minCount(n uint32) int {
	if n > 1024 {
		return 1024
	}
	return int(n)
}
