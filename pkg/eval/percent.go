package eval

import (
	"strconv"
	"strings"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// percent expands the %-code whose letter is at src[p] and returns the
// index to resume at. An uppercase letter capitalizes the first byte the
// expansion wrote.
func (ctx *EvalContext) percent(buf *Buffer, src []byte, p int, eval int, cargs []string, f *frame) int {
	if p >= len(src) {
		return p
	}
	code := src[p]
	savepos := buf.Len()
	next := p + 1

	switch code {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if i := int(code - '0'); i < len(cargs) {
			buf.WriteString(cargs[i])
		}
	case 'r', 'R':
		buf.WriteString("\r\n")
	case 't', 'T':
		buf.WriteByte('\t')
	case 'b', 'B':
		buf.WriteByte(' ')
	case 'c', 'C':
		if ctx.Conf.CIsCommand {
			buf.WriteString(ctx.CurrCmd)
			break
		}
		next = ctx.colorCode(buf, src, p+1, f)
	case 'x', 'X':
		next = ctx.colorCode(buf, src, p+1, f)
	case '=':
		next = ctx.attrRef(buf, src, p+1)
	case '_':
		next = ctx.xvarRef(buf, src, p+1)
	case 'v', 'V':
		if p+1 >= len(src) {
			break
		}
		next = p + 2
		ch := upper(src[p+1])
		if ch < 'A' || ch > 'Z' {
			break
		}
		if a, ok := ctx.World.ParentAttr(ctx.Player, gamedb.AttrVA+int(ch-'A')); ok {
			buf.WriteString(a.Value)
		}
	case 'q', 'Q':
		next = ctx.registerRef(buf, src, p+1)
	case 'o', 'O', 'p', 'P', 's', 'S', 'a', 'A':
		if f.gender == 0 {
			f.gender = ctx.gender(ctx.Cause)
		}
		buf.WriteString(pronoun(code, f.gender))
	case '#':
		buf.WriteString(ctx.Cause.String())
	case '!':
		buf.WriteString(ctx.Player.String())
	case '@':
		buf.WriteString(ctx.Caller.String())
	case 'n', 'N':
		buf.WriteString(ctx.objName(ctx.Cause))
	case 'l', 'L':
		if eval&EvNoLocation == 0 {
			buf.WriteString(ctx.whereIs(ctx.Cause).String())
		}
	case ':':
		buf.WriteString(ctx.Cause.String())
		buf.WriteByte(':')
		if obj, ok := ctx.World.Object(ctx.Cause); ok {
			buf.WriteString(strconv.FormatInt(obj.CreateTime.Unix(), 10))
		}
	case 'm', 'M':
		buf.WriteString(ctx.CurrCmd)
	case 'i', 'I', 'j', 'J':
		next = ctx.itextRef(buf, src, p, code)
	case '+':
		buf.WriteString(strconv.Itoa(len(cargs)))
	case '|':
		buf.WriteString(ctx.PipeOut)
	case '%':
		buf.WriteByte('%')
	default:
		buf.WriteByte(code)
	}

	if code >= 'A' && code <= 'Z' {
		buf.upcaseAt(savepos)
	}
	return next
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

// bracketed reads "<name>" starting at src[p] == '<'. ok is false when the
// closing '>' is missing.
func bracketed(src []byte, p int) (name string, end int, ok bool) {
	close := -1
	for i := p + 1; i < len(src); i++ {
		if src[i] == '>' {
			close = i
			break
		}
	}
	if close < 0 {
		return "", p, false
	}
	return string(src[p+1 : close]), close, true
}

// attrRef handles %=<attr>, reading from the executor.
func (ctx *EvalContext) attrRef(buf *Buffer, src []byte, p int) int {
	if p >= len(src) || src[p] != '<' {
		return p
	}
	name, end, ok := bracketed(src, p)
	if !ok {
		return p + 1
	}
	num, ok := ctx.World.AttrNum(name)
	if !ok {
		return end + 1
	}
	a, ok := ctx.World.ParentAttr(ctx.Player, num)
	if ok && ctx.Perms.CanSeeAttr(ctx.Player, ctx.Player, a) {
		buf.WriteString(a.Value)
	}
	return end + 1
}

// xvarRef handles %_c and %_<name>.
func (ctx *EvalContext) xvarRef(buf *Buffer, src []byte, p int) int {
	if p >= len(src) {
		return p
	}
	var key string
	next := p + 1
	if src[p] != '<' {
		ch := lower(src[p])
		if !isAlnum(ch) {
			return next
		}
		key = strconv.Itoa(int(ctx.Player)) + "." + string(ch)
	} else {
		name, end, ok := bracketed(src, p)
		if !ok {
			return p + 1
		}
		key = strconv.Itoa(int(ctx.Player)) + "." + strings.ToLower(name)
		next = end + 1
	}
	buf.WriteString(ctx.XVars[key])
	return next
}

// registerRef handles %qX and %q<name>.
func (ctx *EvalContext) registerRef(buf *Buffer, src []byte, p int) int {
	if p >= len(src) {
		return p
	}
	if src[p] != '<' {
		i := qidx(src[p])
		if i >= 0 && i < ctx.maxRegs() {
			buf.WriteString(ctx.RData.Q(i))
		}
		return p + 1
	}
	name, end, ok := bracketed(src, p)
	if !ok {
		return p + 1
	}
	if v, found := ctx.RData.X(strings.ToLower(name)); found {
		buf.WriteString(v)
	}
	return end + 1
}

// itextRef handles %iN / %i-N (and %j for the second loop token). A digit
// counts outward from the innermost loop; a '-' digit is an absolute level.
func (ctx *EvalContext) itextRef(buf *Buffer, src []byte, p int, code byte) int {
	q := p + 1
	if q >= len(src) {
		return q
	}
	inLoop := ctx.Loop.InLoop
	var i int
	if src[q] == '-' {
		q++
		if q >= len(src) {
			return q
		}
		if !isDigit(src[q]) {
			return q + 1
		}
		i = int(src[q] - '0')
	} else {
		if inLoop == 0 || !isDigit(src[q]) {
			return q + 1
		}
		i = inLoop - 1 - int(src[q]-'0')
		if i < 0 {
			return q + 1
		}
	}
	if i > inLoop-1 {
		return q + 1
	}
	if code == 'i' || code == 'I' {
		buf.WriteString(indexOr(ctx.Loop.LoopTokens, i))
	} else {
		buf.WriteString(indexOr(ctx.Loop.LoopTokens2, i))
	}
	return q + 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// whereIs is the location reported by %l. Rooms have none.
func (ctx *EvalContext) whereIs(ref gamedb.DBRef) gamedb.DBRef {
	obj, ok := ctx.World.Object(ref)
	if !ok || obj.ObjType() == gamedb.TypeRoom {
		return gamedb.Nothing
	}
	return obj.Location
}
