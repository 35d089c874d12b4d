package eval

import (
	"sort"
	"strings"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// FnHandler is the signature for built-in function handlers. The handler
// writes its result straight into buf.
type FnHandler func(ctx *EvalContext, args []string, buf *Buffer, caller, cause gamedb.DBRef)

// Callable is anything the evaluator can dispatch on name(args).
type Callable interface {
	FuncName() string
	// Arity is the argument contract: N exact, -N collect N joining the
	// rest into the last, ignored when FnVarArgs is set.
	Arity() int
	FuncFlags() int
	FuncPerms() int
	// Invoke runs the call, writing the result into buf. feval is the
	// evaluation mode the arguments were built with.
	Invoke(ctx *EvalContext, buf *Buffer, args []string, feval int)
}

// Function is a registered built-in function.
type Function struct {
	Name    string
	Handler FnHandler
	NArgs   int
	Flags   int
	Perms   int
}

func (f *Function) FuncName() string { return f.Name }
func (f *Function) Arity() int       { return f.NArgs }
func (f *Function) FuncFlags() int   { return f.Flags }
func (f *Function) FuncPerms() int   { return f.Perms }

// Invoke runs the handler, isolating the caller's registers when FnNoregs
// or FnPres is set.
func (f *Function) Invoke(ctx *EvalContext, buf *Buffer, args []string, feval int) {
	ctx.scopeRegisters(f.Flags&FnNoregs != 0, f.Flags&FnPres != 0, func() {
		f.Handler(ctx, args, buf, ctx.Caller, ctx.Cause)
	})
}

// UFunction is a user-defined (@function) function whose body lives in an
// attribute.
type UFunction struct {
	Name  string
	Obj   gamedb.DBRef
	Attr  int
	Flags int // gamedb.Uf* bits
	Perms int
}

func (u *UFunction) FuncName() string { return u.Name }
func (u *UFunction) Arity() int       { return MaxNFArgs }
func (u *UFunction) FuncPerms() int   { return u.Perms }

func (u *UFunction) FuncFlags() int {
	if u.Flags&gamedb.UfNoEval != 0 {
		return FnVarArgs | FnNoEval
	}
	return FnVarArgs
}

// Invoke evaluates the stored body with the call's arguments as %0-%9.
// The body runs as the defining object when UfPriv is set, and the calling
// executor becomes the caller.
func (u *UFunction) Invoke(ctx *EvalContext, buf *Buffer, args []string, feval int) {
	attr, ok := ctx.World.GetAttr(u.Obj, u.Attr)
	if !ok {
		return
	}
	executor := ctx.Player
	if u.Flags&gamedb.UfPriv != 0 {
		executor = u.Obj
	}

	if u.Flags&gamedb.UfNoEval != 0 {
		feval = EvFCheck | EvEval
	}

	oldPlayer, oldCaller := ctx.Player, ctx.Caller
	ctx.Player, ctx.Caller = executor, oldPlayer
	ctx.scopeRegisters(u.Flags&gamedb.UfNoregs != 0, u.Flags&gamedb.UfPres != 0, func() {
		ctx.exec(buf, []byte(attr.Value), feval, args)
	})
	ctx.Player, ctx.Caller = oldPlayer, oldCaller
}

// scopeRegisters runs fn with the caller's registers isolated. noregs gives
// fn an empty store and puts the caller's back afterwards; pres snapshots
// and restores the caller's values.
func (ctx *EvalContext) scopeRegisters(noregs, pres bool, fn func()) {
	switch {
	case noregs:
		saved := ctx.RData
		ctx.RData = nil
		fn()
		ctx.RData = saved
	case pres:
		saved := ctx.SaveRegisters()
		fn()
		ctx.RestoreRegisters(saved)
	default:
		fn()
	}
}

// Registry holds the builtin and user-defined function tables, keyed by
// upper-cased name. Builtins shadow user functions of the same name.
type Registry struct {
	builtins map[string]*Function
	ufuncs   map[string]*UFunction
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builtins: make(map[string]*Function),
		ufuncs:   make(map[string]*UFunction),
	}
}

// RegisterFunction adds a built-in function.
func (r *Registry) RegisterFunction(name string, handler FnHandler, nargs int, flags int) {
	name = strings.ToUpper(name)
	r.builtins[name] = &Function{Name: name, Handler: handler, NArgs: nargs, Flags: flags}
}

// AliasFunction makes alias resolve to an existing builtin.
func (r *Registry) AliasFunction(alias, target string) {
	if fn, ok := r.builtins[strings.ToUpper(target)]; ok {
		r.builtins[strings.ToUpper(alias)] = fn
	}
}

// DefineUFunction adds or replaces a user-defined function.
func (r *Registry) DefineUFunction(def gamedb.UFuncDef) {
	name := strings.ToUpper(def.Name)
	r.ufuncs[name] = &UFunction{Name: name, Obj: def.Obj, Attr: def.Attr, Flags: def.Flags, Perms: def.Perms}
}

// RemoveUFunction deletes a user-defined function.
func (r *Registry) RemoveUFunction(name string) {
	delete(r.ufuncs, strings.ToUpper(name))
}

// Lookup finds name, builtins first. name must already be upper-cased.
func (r *Registry) Lookup(name string) (Callable, bool) {
	if fn, ok := r.builtins[name]; ok {
		return fn, true
	}
	if uf, ok := r.ufuncs[name]; ok {
		return uf, true
	}
	return nil, false
}

// Builtin returns a registered builtin by name.
func (r *Registry) Builtin(name string) (*Function, bool) {
	fn, ok := r.builtins[strings.ToUpper(name)]
	return fn, ok
}

// Names lists every callable name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.builtins)+len(r.ufuncs))
	for n := range r.builtins {
		out = append(out, n)
	}
	for n := range r.ufuncs {
		if _, shadowed := r.builtins[n]; !shadowed {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
