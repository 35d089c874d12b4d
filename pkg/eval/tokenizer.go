package eval

// DefaultStackLimit is the number of nested [ and ( levels the tokenizer
// tracks. Openers past the limit are copied but never matched, so their
// closers fall through to the delimiter test.
const DefaultStackLimit = 32

const escChar = 0x1b

// Tokenizer splits softcode on a delimiter, honoring [] and () nesting,
// {} literal blocks and \ / % escapes.
type Tokenizer struct {
	Compress   bool // collapse runs of spaces
	StackLimit int  // <= 0 means DefaultStackLimit
}

func (t Tokenizer) stackLimit() int {
	if t.StackLimit <= 0 {
		return DefaultStackLimit
	}
	return t.StackLimit
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// compactor slides kept bytes leftward over dropped ones.
type compactor struct {
	src []byte
	c   int // read position
	z   int // write position
}

func (k *compactor) keep() {
	if k.c != k.z {
		k.src[k.z] = k.src[k.c]
	}
	k.c++
	k.z++
}

func (k *compactor) more() bool { return k.c < len(k.src) }

// scan finds the first delim in src outside nesting, compacting src in place.
// The token is src[start:end]. next is the index just past the delimiter, or
// -1 when the input ran out first; src[end:] is then stale. A zero delim
// never matches, so the token runs to the end of the input.
func (t Tokenizer) scan(src []byte, delim byte, eval int) (start, end, next int) {
	if len(src) == 0 {
		return 0, 0, -1
	}
	compress := t.Compress && eval&EvNoCompress == 0
	r := 0
	if (t.Compress || eval&EvStripLS != 0) && eval&EvNoCompress == 0 {
		for r < len(src) && isSpace(src[r]) {
			r++
		}
	}

	limit := t.stackLimit()
	var stack []byte
	first := true
	k := compactor{src: src, c: r, z: r}

	for k.more() {
		ch := src[k.c]
		switch ch {
		case '\\', '%':
			if ch == '\\' && eval&EvStripESC != 0 {
				k.c++
			} else {
				k.keep()
			}
			if k.more() {
				k.keep()
			}
			first = false

		case ']', ')':
			tp := len(stack) - 1
			for tp >= 0 && stack[tp] != ch {
				tp--
			}
			if tp >= 0 {
				stack = stack[:tp]
			} else if ch == delim && len(stack) == 0 {
				start, end = t.cleanup(src, eval, first, k.c, r, k.z)
				return start, end, k.c + 1
			}
			first = false
			k.keep()

		case '{':
			depth := 1
			if eval&EvStrip != 0 {
				k.c++
			} else {
				k.keep()
			}
			for k.more() && depth > 0 {
				switch src[k.c] {
				case '\\', '%':
					if k.c+1 < len(src) {
						if src[k.c] == '\\' && eval&EvStripESC != 0 {
							k.c++
						} else {
							k.keep()
						}
					}
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth > 0 && k.more() {
					k.keep()
				}
			}
			if depth == 0 {
				if eval&EvStrip != 0 {
					k.c++
				} else {
					k.keep()
				}
			}
			first = false

		default:
			if delim != 0 && ch == delim && len(stack) == 0 {
				start, end = t.cleanup(src, eval, first, k.c, r, k.z)
				return start, end, k.c + 1
			}
			switch ch {
			case ' ':
				if compress {
					if first {
						r++
					} else if k.c > 0 && src[k.c-1] == ' ' {
						k.z--
					}
				}
				k.keep()
			case '[', '(':
				if len(stack) < limit {
					if ch == '[' {
						stack = append(stack, ']')
					} else {
						stack = append(stack, ')')
					}
				}
				k.keep()
				first = false
			case escChar:
				k.keep()
				k.copyEscape()
				first = false
			default:
				first = false
				k.keep()
			}
		}
	}

	start, end = t.cleanup(src, eval, first, k.c, r, k.z)
	return start, end, -1
}

// copyEscape keeps the remainder of an escape sequence whose ESC byte has
// already been kept: an optional CSI with parameter bytes, intermediates,
// then one final byte.
func (k *compactor) copyEscape() {
	if k.more() && k.src[k.c] == '[' {
		k.keep()
		for k.more() && k.src[k.c]&0xf0 == 0x30 {
			k.keep()
		}
	}
	for k.more() && k.src[k.c]&0xf0 == 0x20 {
		k.keep()
	}
	if k.more() {
		k.keep()
	}
}

// cleanup trims the token bounds after a scan: one trailing space when
// compressing, then one {} wrapper under EvStripAround.
func (t Tokenizer) cleanup(src []byte, eval int, first bool, c, r, z int) (int, int) {
	compress := t.Compress && eval&EvNoCompress == 0
	if (t.Compress || eval&EvStripTS != 0) && eval&EvNoCompress == 0 && !first && c > 0 && src[c-1] == ' ' && z > r {
		z--
	}
	if eval&EvStripAround != 0 && z-r >= 2 && src[r] == '{' && src[z-1] == '}' {
		r++
		z--
		if compress || eval&EvStripLS != 0 {
			for r < z && isSpace(src[r]) {
				r++
			}
		}
		if compress || eval&EvStripTS != 0 {
			for z > r && isSpace(src[z-1]) {
				z--
			}
		}
	}
	return r, z
}

// ParseTo splits s at the first delim outside nesting. When found is false
// the delimiter never appeared and tok is the cleaned remainder.
func (t Tokenizer) ParseTo(s string, delim byte, eval int) (tok, rest string, found bool) {
	buf := []byte(s)
	start, end, next := t.scan(buf, delim, eval)
	tok = string(buf[start:end])
	if next < 0 {
		return tok, "", false
	}
	return tok, string(buf[next:]), true
}

// Split breaks s into every delim-separated token. Empty input yields one
// empty token.
func (t Tokenizer) Split(s string, delim byte, eval int) []string {
	buf := []byte(s)
	var out []string
	for {
		start, end, next := t.scan(buf, delim, eval)
		out = append(out, string(buf[start:end]))
		if next < 0 {
			return out
		}
		buf = buf[next:]
	}
}
