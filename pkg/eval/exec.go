package eval

import (
	"fmt"
	"strings"
)

// maxFuncName bounds the text taken as a candidate function name.
const maxFuncName = 63

// frame is the per-call scanner state.
type frame struct {
	atSpace bool
	ansi    bool // a color code is open
	gender  int  // 0 until resolved
	done    bool
}

// Exec evaluates input and returns the result. A nil cargs reuses the
// %0-%9 of the frame currently being evaluated.
func (ctx *EvalContext) Exec(input string, eval int, cargs []string) string {
	if cargs == nil {
		cargs = ctx.CArgs
	}
	buf := NewBuffer(ctx.outputLimit())
	ctx.exec(buf, []byte(input), eval, cargs)
	return buf.String()
}

// ExecInto evaluates input, appending the result to buf.
func (ctx *EvalContext) ExecInto(buf *Buffer, input string, eval int, cargs []string) {
	if cargs == nil {
		cargs = ctx.CArgs
	}
	ctx.exec(buf, []byte(input), eval, cargs)
}

func (ctx *EvalContext) execToString(src []byte, eval int, cargs []string) string {
	buf := NewBuffer(ctx.outputLimit())
	ctx.exec(buf, src, eval, cargs)
	return buf.String()
}

// special reports whether c needs more than a plain copy. # only matters
// inside a loop or switch.
func (ctx *EvalContext) special(c byte) bool {
	switch c {
	case escChar, ' ', '%', '(', '[', '\\', '{':
		return true
	case '#':
		return ctx.Loop.InLoop > 0 || ctx.Loop.InSwitch > 0
	}
	return false
}

// exec rewrites src into out. src is scratch space: the tokenizer compacts
// it in place.
func (ctx *EvalContext) exec(out *Buffer, src []byte, eval int, cargs []string) {
	if len(src) == 0 {
		return
	}

	// A frame starting near the ceiling works in a fresh buffer so nested
	// results are not clipped before they are copied back.
	buf := out
	if out.Len() > out.Limit()-ctx.headroom() {
		buf = NewBuffer(out.Limit())
	}
	start := buf.Len()

	oldCArgs := ctx.CArgs
	ctx.CArgs = cargs

	traced := eval&EvNoTrace == 0 && ctx.isTraced(ctx.Player)
	var isTop bool
	var orig string
	if traced {
		isTop = ctx.Trace.Begin()
		orig = string(src)
	}

	tz := ctx.tokenizer()
	compress := ctx.Conf.SpaceCompress
	f := frame{atSpace: true}
	pos := 0

	for pos < len(src) && !f.done {
		if !ctx.special(src[pos]) {
			run := pos + 1
			for run < len(src) && !ctx.special(src[run]) {
				run++
			}
			buf.Write(src[pos:run])
			pos = run
			f.atSpace = false
			if pos >= len(src) {
				break
			}
		}

		switch src[pos] {
		case ' ':
			if !(compress && f.atSpace) || eval&EvNoCompress != 0 {
				buf.WriteByte(' ')
				f.atSpace = true
			}
			pos++

		case '\\':
			f.atSpace = false
			if pos+1 < len(src) {
				buf.WriteByte(src[pos+1])
				pos += 2
			} else {
				pos++
			}

		case '[':
			f.atSpace = false
			if eval&EvNoFCheck != 0 {
				buf.WriteByte('[')
				pos++
				break
			}
			s, e, next := tz.scan(src[pos+1:], ']', 0)
			if next < 0 {
				buf.WriteByte('[')
				src = src[:pos+1+e]
				pos++
				break
			}
			ctx.exec(buf, src[pos+1+s:pos+1+e], eval|EvFCheck|EvFMand, cargs)
			pos += 1 + next

		case '{':
			f.atSpace = false
			s, e, next := tz.scan(src[pos+1:], '}', 0)
			if next < 0 {
				buf.WriteByte('{')
				src = src[:pos+1+e]
				pos++
				break
			}
			if eval&EvStrip == 0 {
				buf.WriteByte('{')
			}
			body := src[pos+1+s : pos+1+e]
			if len(body) > 0 && body[0] == ' ' {
				buf.WriteByte(' ')
				body = body[1:]
			}
			ctx.exec(buf, body, eval&^(EvStrip|EvFCheck), cargs)
			if eval&EvStrip == 0 {
				buf.WriteByte('}')
			}
			pos += 1 + next

		case '%':
			f.atSpace = false
			pos = ctx.percent(buf, src, pos+1, eval, cargs, &f)

		case '(':
			f.atSpace = false
			if eval&EvFCheck == 0 {
				buf.WriteByte('(')
				pos++
				break
			}
			var next int
			src, next = ctx.funcCall(buf, src, pos, start, &eval, cargs, &f)
			pos = next

		case '#':
			f.atSpace = false
			pos = ctx.loopToken(buf, src, pos)

		case escChar:
			pos = copyEscape(buf, src, pos)
		}
	}

	if compress && f.atSpace && eval&EvNoCompress == 0 && buf.Len() != start {
		if c, ok := buf.lastByte(); ok && c == ' ' {
			buf.Truncate(buf.Len() - 1)
		}
	}
	if f.ansi {
		buf.WriteString(ansiNormal)
	}

	if traced {
		ctx.Trace.Add(orig, buf.From(start))
		discarded := ctx.Trace.Discarded()
		if isTop || !ctx.Conf.TraceTopdown {
			ctx.flushTrace(ctx.Player)
		}
		if isTop && discarded > 0 {
			ctx.notify(ctx.Player, fmt.Sprintf("%d lines of trace output discarded.", discarded))
			if ctx.Observer != nil {
				ctx.Observer.TraceDiscarded(discarded)
			}
		}
	}

	if buf != out {
		out.WriteString(buf.String())
	}
	ctx.CArgs = oldCArgs
}

// funcCall handles a '(' at src[pos] with function checking on. The text
// written since start is the candidate name. It returns the (possibly
// truncated) source and the index to resume scanning at.
func (ctx *EvalContext) funcCall(buf *Buffer, src []byte, pos, start int, eval *int, cargs []string, f *frame) ([]byte, int) {
	name := buf.From(start)
	if len(name) > maxFuncName {
		name = name[:maxFuncName]
	}
	if ctx.Conf.SpaceCompress && *eval&EvFMand != 0 {
		name = strings.TrimRight(name, " \t\n\r\v\f")
	}
	name = strings.ToUpper(name)

	fn, ok := ctx.Funcs.Lookup(name)
	if !ok {
		if *eval&EvFMand != 0 {
			buf.Truncate(start)
			buf.WriteString(errNotFound(name))
			f.done = true
		} else {
			buf.WriteByte('(')
		}
		*eval &^= EvFCheck
		return src, pos + 1
	}

	nfargs := MaxNFArgs
	if a := fn.Arity(); a < 0 {
		nfargs = -a
	}
	feval := *eval
	if fn.FuncFlags()&FnNoEval != 0 {
		feval = (*eval &^ EvEval) | EvStripESC
	}

	args, next, found := ctx.parseArgList(src[pos+1:], ')', feval, nfargs, cargs)
	*eval &^= EvFCheck
	if !found {
		buf.WriteByte('(')
		return src[:pos+1+next], pos + 1
	}

	buf.Truncate(start)
	ctx.call(buf, fn, args, feval)
	return src, pos + 1 + next
}

// call runs fn after the arity, budget, validity and permission checks,
// writing either its output or one error token.
func (ctx *EvalContext) call(buf *Buffer, fn Callable, args []string, feval int) {
	_, user := fn.(*UFunction)
	arity := fn.Arity()
	if !user && arity == 0 && len(args) == 1 && args[0] == "" {
		args = nil
	}
	if n := len(args); n != arity && n != -arity && fn.FuncFlags()&FnVarArgs == 0 {
		fmt.Fprintf(buf, "#-1 FUNCTION (%s) EXPECTS %d ARGUMENTS BUT GOT %d", fn.FuncName(), arity, n)
		return
	}
	if user && args == nil {
		args = []string{}
	}

	if msg := ctx.Budget.enter(); msg != "" {
		buf.WriteString(msg)
		if ctx.Observer != nil {
			ctx.Observer.LimitExceeded(msg)
		}
	} else if ctx.playerGoing() {
		buf.WriteString(ErrBadInvoker)
	} else if !ctx.Perms.CanCall(ctx.Player, fn) {
		buf.WriteString(ErrPermission)
	} else {
		if ctx.Observer != nil {
			ctx.Observer.FunctionCalled(fn.FuncName(), user)
		}
		fn.Invoke(ctx, buf, args, feval)
	}
	ctx.Budget.leave()
}

func (ctx *EvalContext) playerGoing() bool {
	obj, ok := ctx.World.Object(ctx.Player)
	return ok && obj.IsGoing()
}

// loopToken handles '#' inside a loop or switch.
func (ctx *EvalContext) loopToken(buf *Buffer, src []byte, pos int) int {
	if pos+1 >= len(src) {
		buf.WriteByte('#')
		return pos + 1
	}
	l := &ctx.Loop
	lvl := l.InLoop - 1
	switch src[pos+1] {
	case '#':
		if l.InLoop > 0 {
			buf.WriteString(indexOr(l.LoopTokens, lvl))
			return pos + 2
		}
	case '@':
		if l.InLoop > 0 {
			if lvl < len(l.LoopNumbers) {
				fmt.Fprintf(buf, "%d", l.LoopNumbers[lvl])
			}
			return pos + 2
		}
	case '+':
		if l.InLoop > 0 {
			buf.WriteString(indexOr(l.LoopTokens2, lvl))
			return pos + 2
		}
	case '$':
		if l.InSwitch > 0 {
			buf.WriteString(l.SwitchToken)
			return pos + 2
		}
	case '!':
		if l.InLoop > 0 {
			fmt.Fprintf(buf, "%d", lvl)
		} else {
			fmt.Fprintf(buf, "%d", l.InSwitch)
		}
		return pos + 2
	}
	buf.WriteByte('#')
	return pos + 1
}

func indexOr(s []string, i int) string {
	if i >= 0 && i < len(s) {
		return s[i]
	}
	return ""
}
