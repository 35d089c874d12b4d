package eval

import (
	"time"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// World is the read side of the object/attribute store.
type World interface {
	Object(ref gamedb.DBRef) (*gamedb.Object, bool)
	AttrNum(name string) (int, bool)
	// GetAttr reads an attribute set directly on obj.
	GetAttr(obj gamedb.DBRef, num int) (gamedb.Attribute, bool)
	// ParentAttr reads an attribute from obj or its parent chain.
	ParentAttr(obj gamedb.DBRef, num int) (gamedb.Attribute, bool)
	RedirectTarget(obj gamedb.DBRef) (gamedb.DBRef, bool)
}

// Permissions gates function calls and attribute reads.
type Permissions interface {
	CanCall(player gamedb.DBRef, fn Callable) bool
	CanSeeAttr(player, obj gamedb.DBRef, attr gamedb.Attribute) bool
}

// Notifier delivers messages to participants.
type Notifier interface {
	Notify(target gamedb.DBRef, msg string)
	NotifyTrace(target, source gamedb.DBRef, msg string)
}

// Observer receives evaluator events for instrumentation. All methods must
// be cheap; they run on the evaluation path.
type Observer interface {
	FunctionCalled(name string, user bool)
	LimitExceeded(token string)
	TraceFlushed(lines int)
	TraceDiscarded(lines int)
}

// Config carries the tunables the evaluator reads.
type Config struct {
	SpaceCompress bool
	AnsiColors    bool
	CIsCommand    bool // %c is the current command rather than a color code
	NestLimit     int
	InvkLimit     int
	CPULimit      time.Duration
	TraceLimit    int
	TraceTopdown  bool
	StackLimit    int
	OutputLimit   int
	Headroom      int
	MaxGlobalRegs int
}

// DefaultConfig returns the stock evaluator settings.
func DefaultConfig() Config {
	return Config{
		SpaceCompress: true,
		AnsiColors:    true,
		NestLimit:     DefaultNestLimit,
		InvkLimit:     DefaultInvkLimit,
		CPULimit:      DefaultCPULimit,
		TraceLimit:    DefaultTraceLimit,
		TraceTopdown:  true,
		StackLimit:    DefaultStackLimit,
		OutputLimit:   DefaultOutputLimit,
		Headroom:      DefaultHeadroom,
		MaxGlobalRegs: MaxGlobalRegs,
	}
}

// LoopState tracks iter()/switch() nesting
type LoopState struct {
	InLoop      int
	InSwitch    int
	LoopTokens  []string // ## values per nesting level
	LoopTokens2 []string // #+ values
	LoopNumbers []int    // #@ values
	SwitchToken string   // #$ value
}

// Notification is a message queued when no Notifier is attached.
type Notification struct {
	Target  gamedb.DBRef
	Source  gamedb.DBRef
	Message string
	Trace   bool
}

// EvalContext is the execution context for one command's evaluation. It is
// threaded through every recursive call and is not safe for concurrent use.
type EvalContext struct {
	World    World
	Perms    Permissions
	Notifier Notifier
	Observer Observer
	Funcs    *Registry
	Conf     Config

	// Object context
	Player gamedb.DBRef // Executor (the object running code, %!)
	Caller gamedb.DBRef // Caller (%@)
	Cause  gamedb.DBRef // Enactor (%#)

	RData  *RegisterData
	Loop   LoopState
	Budget Budget
	Trace  *TraceCache

	// XVars holds x-variables keyed "<dbref>.<name>".
	XVars map[string]string

	CurrCmd string
	PipeOut string

	// CArgs holds %0-%9 for the frame being evaluated, so FnNoEval
	// handlers can pass them on when they call Exec themselves.
	CArgs []string

	// Notifications collects output when Notifier is nil.
	Notifications []Notification
}

// NewEvalContext creates an EvalContext over world with the given settings.
func NewEvalContext(world World, conf Config) *EvalContext {
	ctx := &EvalContext{
		World:  world,
		Funcs:  NewRegistry(),
		Player: gamedb.Nothing,
		Caller: gamedb.Nothing,
		Cause:  gamedb.Nothing,
		Budget: NewBudget(),
		XVars:  make(map[string]string),
	}
	ctx.Perms = DefaultPermissions{World: world}
	ctx.Trace = NewTraceCache(conf.TraceLimit)
	ctx.ApplyConfig(conf)
	return ctx
}

// ApplyConfig swaps in new settings. Counters in flight are kept.
func (ctx *EvalContext) ApplyConfig(conf Config) {
	ctx.Conf = conf
	ctx.Budget.NestLimit = conf.NestLimit
	ctx.Budget.InvkLimit = conf.InvkLimit
	ctx.Budget.CPULimit = conf.CPULimit
	ctx.Trace.SetLimit(conf.TraceLimit)
}

// BeginCommand readies the context for a new command: budgets restart and
// %m/%c report cmd.
func (ctx *EvalContext) BeginCommand(cmd string) {
	ctx.Budget.Reset()
	ctx.CurrCmd = cmd
}

func (ctx *EvalContext) tokenizer() Tokenizer {
	return Tokenizer{Compress: ctx.Conf.SpaceCompress, StackLimit: ctx.Conf.StackLimit}
}

func (ctx *EvalContext) outputLimit() int {
	if ctx.Conf.OutputLimit > 0 {
		return ctx.Conf.OutputLimit
	}
	return DefaultOutputLimit
}

func (ctx *EvalContext) headroom() int {
	if ctx.Conf.Headroom > 0 {
		return ctx.Conf.Headroom
	}
	return DefaultHeadroom
}

func (ctx *EvalContext) objName(ref gamedb.DBRef) string {
	if obj, ok := ctx.World.Object(ref); ok {
		return obj.Name
	}
	return ""
}

func (ctx *EvalContext) notify(target gamedb.DBRef, msg string) {
	if ctx.Notifier != nil {
		ctx.Notifier.Notify(target, msg)
		return
	}
	ctx.Notifications = append(ctx.Notifications, Notification{Target: target, Source: target, Message: msg})
}

func (ctx *EvalContext) notifyTrace(target, source gamedb.DBRef, msg string) {
	if ctx.Notifier != nil {
		ctx.Notifier.NotifyTrace(target, source, msg)
		return
	}
	ctx.Notifications = append(ctx.Notifications, Notification{Target: target, Source: source, Message: msg, Trace: true})
}

// Notify sends msg to target through the attached Notifier.
func (ctx *EvalContext) Notify(target gamedb.DBRef, msg string) {
	ctx.notify(target, msg)
}

// Ambient is the loop and nesting state shared by one command's
// evaluation. The invocation counter is not part of it: out-of-band work
// still spends the command's budget.
type Ambient struct {
	Loop    LoopState
	NestLev int
}

// SaveAmbient captures the ambient state.
func (ctx *EvalContext) SaveAmbient() Ambient {
	return Ambient{Loop: ctx.Loop, NestLev: ctx.Budget.NestLev}
}

// RestoreAmbient reinstates state captured by SaveAmbient.
func (ctx *EvalContext) RestoreAmbient(a Ambient) {
	ctx.Loop = a.Loop
	ctx.Budget.NestLev = a.NestLev
}

// ExecOutOfBand evaluates input as obj in a clean loop and nesting scope,
// for evaluations that are not part of the running expression (default
// attributes, hooks). The surrounding state is restored afterwards.
func (ctx *EvalContext) ExecOutOfBand(obj gamedb.DBRef, input string, eval int, cargs []string) string {
	saved := ctx.SaveAmbient()
	oldPlayer := ctx.Player
	ctx.Loop = LoopState{}
	ctx.Budget.NestLev = 0
	ctx.Player = obj
	out := ctx.Exec(input, eval, cargs)
	ctx.Player = oldPlayer
	ctx.RestoreAmbient(saved)
	return out
}
