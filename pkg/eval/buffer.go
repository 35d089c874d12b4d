package eval

// Default output sizes. A frame that starts within DefaultHeadroom bytes of
// the ceiling evaluates into a fresh buffer and copies back on return.
const (
	DefaultOutputLimit = 8192
	DefaultHeadroom    = 64
)

// Buffer is an output target with a hard ceiling. Writes past the ceiling
// are silently dropped.
type Buffer struct {
	b     []byte
	limit int
}

// NewBuffer returns an empty buffer holding at most limit bytes.
// A non-positive limit means DefaultOutputLimit.
func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultOutputLimit
	}
	return &Buffer{limit: limit}
}

func (b *Buffer) Len() int       { return len(b.b) }
func (b *Buffer) Limit() int     { return b.limit }
func (b *Buffer) String() string { return string(b.b) }

// Full reports whether the ceiling has been reached.
func (b *Buffer) Full() bool { return len(b.b) >= b.limit }

func (b *Buffer) WriteByte(c byte) error {
	if len(b.b) < b.limit {
		b.b = append(b.b, c)
	}
	return nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	room := b.limit - len(b.b)
	if room <= 0 {
		return 0, nil
	}
	if len(s) > room {
		s = s[:room]
	}
	b.b = append(b.b, s...)
	return len(s), nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	return b.WriteString(string(p))
}

// Truncate discards everything after the first n bytes.
func (b *Buffer) Truncate(n int) {
	if n >= 0 && n < len(b.b) {
		b.b = b.b[:n]
	}
}

// From returns the text written since offset n.
func (b *Buffer) From(n int) string {
	if n >= len(b.b) {
		return ""
	}
	return string(b.b[n:])
}

// upcaseAt upper-cases the ASCII letter at offset i, if any.
func (b *Buffer) upcaseAt(i int) {
	if i >= 0 && i < len(b.b) {
		if c := b.b[i]; c >= 'a' && c <= 'z' {
			b.b[i] = c - 'a' + 'A'
		}
	}
}

func (b *Buffer) lastByte() (byte, bool) {
	if len(b.b) == 0 {
		return 0, false
	}
	return b.b[len(b.b)-1], true
}
