package eval

import (
	"strconv"
	"strings"
	"testing"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// testEnv wraps a small world:
//
//	#0 Limbo (ROOM)
//	#1 Wizard (PLAYER, WIZARD) in #0
//	#2 Bob (PLAYER) in #0, SEX=male
//	#3 Widget (THING) in #0, owner=#2, holds function bodies
type testEnv struct {
	db  *gamedb.Database
	ctx *EvalContext
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := gamedb.Minimal()
	db.AddObject(&gamedb.Object{
		DBRef: 2, Name: "Bob", Location: 0, Owner: 2, Parent: gamedb.Nothing,
		Flags: [3]int{int(gamedb.TypePlayer), 0, 0},
	})
	db.AddObject(&gamedb.Object{
		DBRef: 3, Name: "Widget", Location: 0, Owner: 2, Parent: gamedb.Nothing,
		Flags: [3]int{int(gamedb.TypeThing), 0, 0},
	})
	db.SetAttr(2, gamedb.AttrSex, "male")

	ctx := NewEvalContext(db, DefaultConfig())
	ctx.Player, ctx.Caller, ctx.Cause = 2, 2, 2
	registerTestFuncs(ctx.Funcs)
	return &testEnv{db: db, ctx: ctx}
}

// registerTestFuncs installs the handful of builtins the evaluator tests
// lean on.
func registerTestFuncs(r *Registry) {
	r.RegisterFunction("add", func(_ *EvalContext, args []string, buf *Buffer, _, _ gamedb.DBRef) {
		a, _ := strconv.Atoi(strings.TrimSpace(args[0]))
		b, _ := strconv.Atoi(strings.TrimSpace(args[1]))
		buf.WriteString(strconv.Itoa(a + b))
	}, 2, 0)
	r.RegisterFunction("cat", func(_ *EvalContext, args []string, buf *Buffer, _, _ gamedb.DBRef) {
		buf.WriteString(strings.Join(args, " "))
	}, 0, FnVarArgs)
	r.RegisterFunction("setq", func(ctx *EvalContext, args []string, _ *Buffer, _, _ gamedb.DBRef) {
		ctx.SetRegister(args[0], args[1])
	}, 2, 0)
	r.RegisterFunction("lit", func(_ *EvalContext, args []string, buf *Buffer, _, _ gamedb.DBRef) {
		buf.WriteString(args[0])
	}, -1, FnNoEval)
	r.RegisterFunction("none", func(_ *EvalContext, args []string, buf *Buffer, _, _ gamedb.DBRef) {
		buf.WriteString(strconv.Itoa(len(args)))
	}, 0, 0)
	r.RegisterFunction("wiz", func(_ *EvalContext, _ []string, buf *Buffer, _, _ gamedb.DBRef) {
		buf.WriteString("ok")
	}, 0, FnPriv)
}

// ufun stores body on the Widget and defines NAME() to run it.
func (e *testEnv) ufun(name, body string, flags int) {
	num := e.db.DefineAttr("FN_" + name)
	e.db.SetAttr(3, num, body)
	e.ctx.Funcs.DefineUFunction(gamedb.UFuncDef{Name: name, Obj: 3, Attr: num, Flags: flags})
}

func (e *testEnv) eval(expr string) string {
	e.ctx.BeginCommand(expr)
	return e.ctx.Exec(expr, EvFCheck|EvEval, nil)
}
