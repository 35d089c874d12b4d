package eval

// EvalFlags control expression evaluation behavior
const (
	EvEval        = 0x0001 // Evaluate functions
	EvFCheck      = 0x0002 // Check for function invocations
	EvFMand       = 0x0004 // Function evaluation is mandatory (inside [])
	EvStrip       = 0x0008 // Strip {} and leading/trailing spaces
	EvNoCompress  = 0x0010 // Don't compress spaces
	EvStripLS     = 0x0020 // Strip leading spaces
	EvStripTS     = 0x0040 // Strip trailing spaces
	EvStripESC    = 0x0080 // Strip backslash escapes
	EvStripAround = 0x0100 // Strip surrounding {}
	EvTop         = 0x0200 // Top-level call from the command processor
	EvNoTrace     = 0x0400 // Don't trace
	EvNoLocation  = 0x0800 // Don't resolve %l
	EvNoFCheck    = 0x1000 // [ is never a function start
)

// Function flags
const (
	FnVarArgs = 0x0001 // Variable number of args
	FnNoEval  = 0x0002 // Don't evaluate args before calling
	FnPriv    = 0x0004 // Privileged function (wizards only)
	FnNoregs  = 0x0008 // Run with a private register store
	FnPres    = 0x0010 // Preserve registers across call
)

const (
	MaxGlobalRegs = 36 // %q0-%q9, %qa-%qz
	MaxNFArgs     = 30
	NumCArgs      = 10 // %0-%9
)

// Inline error tokens written in place of a failed function call.
const (
	ErrRecursion  = "#-1 FUNCTION RECURSION LIMIT EXCEEDED"
	ErrInvocation = "#-1 FUNCTION INVOCATION LIMIT EXCEEDED"
	ErrCPU        = "#-1 FUNCTION CPU LIMIT EXCEEDED"
	ErrBadInvoker = "#-1 BAD INVOKER"
	ErrPermission = "#-1 PERMISSION DENIED"
)

func errNotFound(name string) string {
	return "#-1 FUNCTION (" + name + ") NOT FOUND"
}
