package functions

import (
	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

func fnAdd(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if len(args) < 2 {
		buf.WriteString("#-1 TOO FEW ARGUMENTS")
		return
	}
	var sum float64
	for _, a := range args {
		sum += toNum(a)
	}
	writeNum(buf, sum)
}

func fnSub(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	writeNum(buf, toNum(args[0])-toNum(args[1]))
}

func fnEq(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if toNum(args[0]) == toNum(args[1]) {
		buf.WriteByte('1')
	} else {
		buf.WriteByte('0')
	}
}
