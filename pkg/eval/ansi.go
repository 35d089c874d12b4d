package eval

import (
	"strconv"
	"strings"
)

const ansiNormal = "\033[0m"

// ansiCodes maps %x letters to SGR parameters. Lowercase letters are
// foreground colors and attributes, uppercase the backgrounds.
var ansiCodes = map[byte]int{
	'n': 0, 'h': 1, 'u': 4, 'f': 5, 'i': 7,
	'x': 30, 'r': 31, 'g': 32, 'y': 33, 'b': 34, 'm': 35, 'c': 36, 'w': 37,
	'X': 40, 'R': 41, 'G': 42, 'Y': 43, 'B': 44, 'M': 45, 'C': 46, 'W': 47,
}

// AnsiCode maps a single %x letter to its escape sequence, or "".
func AnsiCode(ch byte) string {
	if n, ok := ansiCodes[ch]; ok {
		return "\033[" + strconv.Itoa(n) + "m"
	}
	return ""
}

// colorCode handles the text after %x (or %c): a letter code, or one or
// more chained <fg> and /<bg> xterm specs.
func (ctx *EvalContext) colorCode(buf *Buffer, src []byte, p int, f *frame) int {
	if p >= len(src) {
		return p
	}
	if !ctx.Conf.AnsiColors {
		return p + 1
	}
	if src[p] != '<' && src[p] != '/' {
		if s := AnsiCode(src[p]); s != "" {
			buf.WriteString(s)
			f.ansi = src[p] != 'n'
		} else {
			buf.WriteByte(src[p])
		}
		return p + 1
	}

	q := p
	for {
		bg := false
		if src[q] == '/' {
			if q+1 >= len(src) {
				break
			}
			q++
			bg = true
		}
		if src[q] != '<' {
			break
		}
		spec, end, ok := bracketed(src, q)
		if !ok {
			break
		}
		if n := Str2Xterm(spec); n >= 0 {
			if bg {
				buf.WriteString("\033[48;5;" + strconv.Itoa(n) + "m")
			} else {
				buf.WriteString("\033[38;5;" + strconv.Itoa(n) + "m")
			}
			f.ansi = true
		}
		q = end
		if q+1 < len(src) && (src[q+1] == '<' || src[q+1] == '/') {
			q++
			continue
		}
		break
	}
	return q + 1
}

// copyEscape copies the escape sequence starting at src[pos] (an ESC byte)
// and returns the index after it.
func copyEscape(buf *Buffer, src []byte, pos int) int {
	buf.WriteByte(src[pos])
	pos++
	if pos < len(src) && src[pos] == '[' {
		buf.WriteByte(src[pos])
		pos++
		for pos < len(src) && src[pos]&0xf0 == 0x30 {
			buf.WriteByte(src[pos])
			pos++
		}
	}
	for pos < len(src) && src[pos]&0xf0 == 0x20 {
		buf.WriteByte(src[pos])
		pos++
	}
	if pos < len(src) {
		buf.WriteByte(src[pos])
		pos++
	}
	return pos
}

// xtermStandard are the exact RGB values of palette entries 0-15.
var xtermStandard = map[int64]int{
	0x000000: 0, 0x800000: 1, 0x008000: 2, 0x808000: 3,
	0x000080: 4, 0x800080: 5, 0x008080: 6, 0xc0c0c0: 7,
	0x808080: 8, 0xff0000: 9, 0x00ff00: 10, 0xffff00: 11,
	0x0000ff: 12, 0xff00ff: 13, 0x00ffff: 14, 0xffffff: 15,
}

// xtermGrays are the upper bounds (one channel) of grayscale entries 232-255.
var xtermGrays = []int64{
	0x08, 0x12, 0x1c, 0x26, 0x30, 0x3a, 0x44, 0x4e, 0x58, 0x60, 0x66, 0x76,
	0x80, 0x8a, 0x94, 0x9e, 0xa8, 0xb2, 0xbc, 0xc6, 0xd0, 0xda, 0xe4, 0xee,
}

// Rgb2Xterm maps a packed 0xRRGGBB color to the nearest xterm-256 index.
func Rgb2Xterm(rgb int64) int {
	if n, ok := xtermStandard[rgb]; ok {
		return n
	}
	r := (rgb & 0xff0000) >> 16
	g := (rgb & 0x00ff00) >> 8
	b := rgb & 0x0000ff
	if r == g && r == b {
		for i, bound := range xtermGrays {
			if r <= bound {
				return 232 + i
			}
		}
	}
	x := int((r/51)*36+(g/51)*6+b/51) + 16
	if x < 16 {
		x = 16
	}
	if x > 231 {
		x = 231
	}
	return x
}

// Str2Xterm parses an xterm color spec: "#rrggbb", a palette index, a
// packed decimal RGB, or "r g b". It returns -1 when spec is unusable.
func Str2Xterm(spec string) int {
	if strings.HasPrefix(spec, "#") {
		hex := leadingRun(spec[1:], isHexDigit)
		if hex == "" {
			return -1
		}
		rgb, err := strconv.ParseInt(hex, 16, 64)
		if err != nil {
			return -1
		}
		return Rgb2Xterm(rgb)
	}

	parts := splitNumbers(spec)
	if len(parts) == 0 || !isDigit(spec[0]) {
		return -1
	}
	if len(parts) == 1 && len(parts[0]) == len(spec) {
		n, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return -1
		}
		if n < 256 {
			return int(n)
		}
		return Rgb2Xterm(n)
	}
	if len(parts) < 3 {
		return -1
	}
	var c [3]int64
	for i := range c {
		n, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			return -1
		}
		c[i] = n
	}
	return Rgb2Xterm(c[0]<<16 + c[1]<<8 + c[2])
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func leadingRun(s string, ok func(byte) bool) string {
	i := 0
	for i < len(s) && ok(s[i]) {
		i++
	}
	return s[:i]
}

// splitNumbers returns the runs of decimal digits in s.
func splitNumbers(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' })
}
