package eval

import (
	"testing"
	"time"
)

func TestBudgetEnter(t *testing.T) {
	b := NewBudget()
	b.NestLimit = 2
	b.InvkLimit = 3

	if msg := b.enter(); msg != "" {
		t.Fatalf("first call = %q", msg)
	}
	if msg := b.enter(); msg != "" {
		t.Fatalf("second nested call = %q", msg)
	}
	if msg := b.enter(); msg != ErrRecursion {
		t.Errorf("third nested call = %q, want %q", msg, ErrRecursion)
	}
	b.leave()
	b.leave()
	b.leave()
	if b.NestLev != 0 {
		t.Errorf("NestLev = %d after leave", b.NestLev)
	}
	if msg := b.enter(); msg != ErrInvocation {
		t.Errorf("fourth call = %q, want %q", msg, ErrInvocation)
	}
	b.leave()

	b.Reset()
	if b.NestLev != 0 || b.InvkCtr != 0 {
		t.Errorf("Reset left %d/%d", b.NestLev, b.InvkCtr)
	}
}

func TestBudgetCPU(t *testing.T) {
	now := time.Unix(5000, 0)
	b := Budget{CPULimit: time.Second, now: func() time.Time { return now }}
	b.Reset()

	now = now.Add(time.Second)
	if b.TooMuchCPU() {
		t.Error("exactly at quota reported over")
	}
	now = now.Add(time.Millisecond)
	if !b.TooMuchCPU() {
		t.Error("past quota not reported")
	}

	b.CPULimit = 0
	if b.TooMuchCPU() {
		t.Error("disabled CPU check tripped")
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(5)
	b.WriteString("abc")
	b.WriteString("defg")
	b.WriteByte('h')
	if b.String() != "abcde" || !b.Full() {
		t.Errorf("clipped buffer = %q, full=%v", b.String(), b.Full())
	}
	if got := b.From(3); got != "de" {
		t.Errorf("From(3) = %q", got)
	}
	b.Truncate(1)
	b.upcaseAt(0)
	if b.String() != "A" {
		t.Errorf("after truncate+upcase = %q", b.String())
	}
	if b.From(4) != "" {
		t.Error("From past end not empty")
	}
	if NewBuffer(0).Limit() != DefaultOutputLimit {
		t.Error("zero limit not defaulted")
	}
}
