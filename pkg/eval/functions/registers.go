package functions

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

const errBadRegister = "#-1 INVALID GLOBAL REGISTER"

// fnSetq implements setq(reg, value[, reg, value...]).
func fnSetq(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	n := len(args)
	switch {
	case n < 2:
		fmt.Fprintf(buf, "#-1 FUNCTION (SETQ) EXPECTS AT LEAST 2 ARGUMENTS BUT GOT %d", n)
		return
	case n%2 != 0:
		fmt.Fprintf(buf, "#-1 FUNCTION (SETQ) EXPECTS AN EVEN NUMBER OF ARGUMENTS BUT GOT %d", n)
		return
	case n > eval.MaxNFArgs-2:
		fmt.Fprintf(buf, "#-1 FUNCTION (SETQ) EXPECTS NO MORE THAN %d ARGUMENTS BUT GOT %d", eval.MaxNFArgs-2, n)
		return
	}

	if n == 2 {
		if !ctx.SetRegister(strings.TrimSpace(args[0]), args[1]) {
			buf.WriteString(errBadRegister)
		}
		return
	}
	errs := 0
	for i := 0; i+1 < n; i += 2 {
		if !ctx.SetRegister(strings.TrimSpace(args[i]), args[i+1]) {
			errs++
		}
	}
	if errs > 0 {
		fmt.Fprintf(buf, "#-1 ENCOUNTERED %d ERRORS", errs)
	}
}

// fnSetr is setq() for one register, returning the value.
func fnSetr(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	if !ctx.SetRegister(strings.TrimSpace(args[0]), args[1]) {
		buf.WriteString(errBadRegister)
		return
	}
	buf.WriteString(args[1])
}

func fnR(ctx *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	name := strings.TrimSpace(args[0])
	if len(name) == 1 && !ctx.ValidRegister(name) {
		buf.WriteString(errBadRegister)
		return
	}
	buf.WriteString(ctx.Register(name))
}
