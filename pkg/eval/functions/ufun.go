package functions

import (
	"strings"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// fnLit returns its argument unevaluated.
func fnLit(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	buf.WriteString(args[0])
}

// fnS evaluates its (already evaluated) argument a second time.
func fnS(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	ctx.ExecInto(buf, args[0], eval.EvFCheck|eval.EvEval, nil)
}

// fnU implements u(obj/attr, arg0, arg1, ...)
func fnU(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if len(args) < 1 {
		return
	}
	buf.WriteString(ctx.CallUFun(args[0], args[1:]))
}

// fnUlocal is u() with the caller's registers restored afterwards.
func fnUlocal(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if len(args) < 1 {
		return
	}
	saved := ctx.SaveRegisters()
	result := ctx.CallUFun(args[0], args[1:])
	ctx.RestoreRegisters(saved)
	buf.WriteString(result)
}

// fnV reads an attribute from the executor by name. A single character
// is run as the matching %-substitution instead, so v(0) is %0.
func fnV(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	s := strings.TrimSpace(args[0])
	if len(s) > 1 && isAlpha(s[0]) {
		buf.WriteString(ctx.GetAttrByNameHelper(ctx.Player, s))
		return
	}
	ctx.ExecInto(buf, "%"+s, 0, nil)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
