package functions

import (
	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

const branchEval = eval.EvStrip | eval.EvFCheck | eval.EvEval

// fnIf implements if(cond, true[, false])
func fnIf(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	ifElse(ctx, "IF", args, buf)
}

// fnIfElse is the same as fnIf
func fnIfElse(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	ifElse(ctx, "IFELSE", args, buf)
}

func ifElse(ctx *eval.EvalContext, name string, args []string, buf *eval.Buffer) {
	if !argRange(buf, name, args, 2, 3) {
		return
	}
	cond := ctx.Exec(args[0], branchEval, nil)
	if isTrue(cond) {
		ctx.ExecInto(buf, args[1], branchEval, nil)
	} else if len(args) > 2 {
		ctx.ExecInto(buf, args[2], branchEval, nil)
	}
}

// fnSwitch implements switch(expr, pat1, result1, ..., default). #$ in the
// chosen result, default included, is the evaluated expression.
func fnSwitch(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if len(args) < 2 {
		return
	}
	expr := ctx.Exec(args[0], branchEval, nil)

	oldToken := ctx.Loop.SwitchToken
	ctx.Loop.InSwitch++
	defer func() {
		ctx.Loop.InSwitch--
		ctx.Loop.SwitchToken = oldToken
	}()

	i := 1
	for ; i+1 < len(args); i += 2 {
		pattern := ctx.Exec(args[i], branchEval, nil)
		if wildMatch(pattern, expr) {
			ctx.Loop.SwitchToken = expr
			ctx.ExecInto(buf, args[i+1], branchEval, nil)
			return
		}
	}
	if i < len(args) {
		ctx.Loop.SwitchToken = expr
		ctx.ExecInto(buf, args[i], branchEval, nil)
	}
}
