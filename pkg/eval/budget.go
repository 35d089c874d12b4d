package eval

import "time"

// Default budget limits.
const (
	DefaultNestLimit = 50
	DefaultInvkLimit = 2500
	DefaultCPULimit  = 60 * time.Second
)

// Budget tracks the per-command limits on function calls. NestLev is the
// current call depth, InvkCtr the calls made so far. A limit of N allows N
// nested (or total) calls; the next one trips.
type Budget struct {
	NestLimit int
	InvkLimit int
	CPULimit  time.Duration // 0 disables the CPU check

	NestLev int
	InvkCtr int
	start   time.Time
	now     func() time.Time
}

// NewBudget returns a budget with the default limits, started now.
func NewBudget() Budget {
	b := Budget{NestLimit: DefaultNestLimit, InvkLimit: DefaultInvkLimit, CPULimit: DefaultCPULimit}
	b.Reset()
	return b
}

func (b *Budget) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

// Reset zeroes the counters and restarts the CPU clock. Call it once per
// command.
func (b *Budget) Reset() {
	b.NestLev = 0
	b.InvkCtr = 0
	b.start = b.clock()
}

// enter counts one function call and returns the error token for the first
// limit it breaches, or "". The caller must pair it with leave.
func (b *Budget) enter() string {
	b.NestLev++
	b.InvkCtr++
	switch {
	case b.NestLev > b.NestLimit:
		return ErrRecursion
	case b.InvkCtr > b.InvkLimit:
		return ErrInvocation
	case b.TooMuchCPU():
		return ErrCPU
	}
	return ""
}

func (b *Budget) leave() {
	b.NestLev--
}

// TooMuchCPU reports whether the command has run past its time quota.
func (b *Budget) TooMuchCPU() bool {
	if b.CPULimit <= 0 || b.start.IsZero() {
		return false
	}
	return b.clock().Sub(b.start) > b.CPULimit
}
