package eval

import "strings"

// RegisterData holds the q-register state: positional %q0-%qz slots and
// named %q<name> registers. Dirty counts writes so a restore can tell
// whether anything changed since the snapshot was taken.
type RegisterData struct {
	QRegs  []string // allocated on first positional write
	XNames []string
	XRegs  []string
	Dirty  int
}

// NewRegisterData creates an empty register store.
func NewRegisterData() *RegisterData {
	return &RegisterData{}
}

func (r *RegisterData) empty() bool {
	return r == nil || (len(r.QRegs) == 0 && len(r.XNames) == 0)
}

// Q returns positional register i.
func (r *RegisterData) Q(i int) string {
	if r == nil || i < 0 || i >= len(r.QRegs) {
		return ""
	}
	return r.QRegs[i]
}

// SetQ writes positional register i.
func (r *RegisterData) SetQ(i int, v string) {
	if i < 0 || i >= MaxGlobalRegs {
		return
	}
	if r.QRegs == nil {
		r.QRegs = make([]string, MaxGlobalRegs)
	}
	r.QRegs[i] = v
	r.Dirty++
}

// X returns the named register, by lowercased name.
func (r *RegisterData) X(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	for i, n := range r.XNames {
		if n == name {
			return r.XRegs[i], true
		}
	}
	return "", false
}

// SetX writes a named register. Names are stored lowercased.
func (r *RegisterData) SetX(name, v string) {
	name = strings.ToLower(name)
	r.Dirty++
	for i, n := range r.XNames {
		if n == name {
			r.XRegs[i] = v
			return
		}
	}
	r.XNames = append(r.XNames, name)
	r.XRegs = append(r.XRegs, v)
}

// Snapshot deep-copies the live store. It returns nil when there is nothing
// to save.
func (r *RegisterData) Snapshot() *RegisterData {
	if r.empty() {
		return nil
	}
	s := &RegisterData{Dirty: r.Dirty}
	if len(r.QRegs) > 0 {
		s.QRegs = make([]string, len(r.QRegs))
		copy(s.QRegs, r.QRegs)
	}
	for i, n := range r.XNames {
		if r.XRegs[i] == "" {
			continue
		}
		s.XNames = append(s.XNames, n)
		s.XRegs = append(s.XRegs, r.XRegs[i])
	}
	return s
}

// SaveRegisters snapshots the context's live registers.
func (ctx *EvalContext) SaveRegisters() *RegisterData {
	return ctx.RData.Snapshot()
}

// RestoreRegisters puts a snapshot back as the live store. An unchanged
// store (same dirty count) is kept as is; a nil snapshot clears the store.
func (ctx *EvalContext) RestoreRegisters(saved *RegisterData) {
	switch {
	case ctx.RData == nil && saved == nil:
	case ctx.RData != nil && saved != nil && ctx.RData.Dirty == saved.Dirty:
	default:
		ctx.RData = saved
	}
}

// qidx maps a register letter to its positional index: 0-9 then a-z,
// case-insensitive.
func qidx(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return -1
}

func (ctx *EvalContext) maxRegs() int {
	if n := ctx.Conf.MaxGlobalRegs; n > 0 && n < MaxGlobalRegs {
		return n
	}
	return MaxGlobalRegs
}

// ValidRegister reports whether name addresses a register: a single
// character names a positional slot, anything longer a named register.
func (ctx *EvalContext) ValidRegister(name string) bool {
	if name == "" {
		return false
	}
	if len(name) == 1 {
		i := qidx(name[0])
		return i >= 0 && i < ctx.maxRegs()
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; !(isAlnum(c) || c == '_' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}

// SetRegister writes register name. It reports false for names that
// address no register.
func (ctx *EvalContext) SetRegister(name, value string) bool {
	if !ctx.ValidRegister(name) {
		return false
	}
	if ctx.RData == nil {
		ctx.RData = NewRegisterData()
	}
	if len(name) == 1 {
		ctx.RData.SetQ(qidx(name[0]), value)
	} else {
		ctx.RData.SetX(name, value)
	}
	return true
}

// Register reads register name with the same addressing as SetRegister.
func (ctx *EvalContext) Register(name string) string {
	if len(name) == 1 {
		i := qidx(name[0])
		if i < 0 || i >= ctx.maxRegs() {
			return ""
		}
		return ctx.RData.Q(i)
	}
	v, _ := ctx.RData.X(strings.ToLower(name))
	return v
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
