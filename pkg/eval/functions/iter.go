package functions

import (
	"strconv"
	"strings"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// fnIter implements iter(list, pattern[, idelim[, odelim]])
func fnIter(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if !argRange(buf, "ITER", args, 2, 4) {
		return
	}
	if ctx.Loop.InLoop >= maxIterNesting-1 {
		ctx.Notify(ctx.Player, "Exceeded maximum iteration nesting.")
		return
	}
	listStr := ctx.Exec(args[0], branchEval, nil)
	idelim := " "
	if len(args) > 2 {
		if d := ctx.Exec(args[2], branchEval, nil); d != "" {
			idelim = d
		}
	}
	odelim := idelim
	if len(args) > 3 {
		odelim = ctx.Exec(args[3], branchEval, nil)
	}

	words := splitList(listStr, idelim)
	if len(words) == 0 {
		return
	}

	// Push loop state
	l := &ctx.Loop
	idx := l.InLoop
	l.InLoop++
	l.LoopTokens = append(l.LoopTokens[:idx], "")
	l.LoopTokens2 = append(l.LoopTokens2[:idx], "")
	l.LoopNumbers = append(l.LoopNumbers[:idx], 0)

	start := buf.Len()
	for i, word := range words {
		if ctx.Budget.InvkCtr >= ctx.Budget.InvkLimit || ctx.Budget.TooMuchCPU() {
			break
		}
		if buf.Len() != start {
			buf.WriteString(odelim)
		}
		ctx.Loop.LoopTokens[idx] = word
		ctx.Loop.LoopNumbers[idx] = i + 1
		ctx.ExecInto(buf, args[1], branchEval, nil)
	}

	// Pop loop state
	l = &ctx.Loop
	l.LoopTokens = l.LoopTokens[:idx]
	l.LoopTokens2 = l.LoopTokens2[:idx]
	l.LoopNumbers = l.LoopNumbers[:idx]
	l.InLoop--
}

// loopLevel reads an absolute loop level argument; ok is false when no
// such level is active.
func loopLevel(ctx *eval.EvalContext, arg string) (int, bool) {
	lev, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || lev < 0 || lev > ctx.Loop.InLoop-1 {
		return 0, false
	}
	return lev, true
}

func fnItext(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if lev, ok := loopLevel(ctx, args[0]); ok && lev < len(ctx.Loop.LoopTokens) {
		buf.WriteString(ctx.Loop.LoopTokens[lev])
	}
}

func fnItext2(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if lev, ok := loopLevel(ctx, args[0]); ok && lev < len(ctx.Loop.LoopTokens2) {
		buf.WriteString(ctx.Loop.LoopTokens2[lev])
	}
}

func fnInum(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	lev, ok := loopLevel(ctx, args[0])
	if !ok || lev >= len(ctx.Loop.LoopNumbers) {
		buf.WriteByte('0')
		return
	}
	writeInt(buf, ctx.Loop.LoopNumbers[lev])
}

func fnIlev(ctx *eval.EvalContext, _ []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	writeInt(buf, ctx.Loop.InLoop-1)
}
