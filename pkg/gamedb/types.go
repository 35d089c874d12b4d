package gamedb

import (
	"strconv"
	"time"
)

// DBRef is the fundamental object reference type.
type DBRef int

const (
	Nothing   DBRef = -1
	Ambiguous DBRef = -2
	Home      DBRef = -3
	NoPerm    DBRef = -4
)

// String renders the reference in softcode form ("#12").
func (r DBRef) String() string {
	return "#" + strconv.Itoa(int(r))
}

// ObjectType represents the type of an object.
type ObjectType int

const (
	TypeRoom    ObjectType = 0
	TypeThing   ObjectType = 1
	TypeExit    ObjectType = 2
	TypePlayer  ObjectType = 3
	TypeGarbage ObjectType = 5
)

func (t ObjectType) String() string {
	switch t {
	case TypeRoom:
		return "ROOM"
	case TypeThing:
		return "THING"
	case TypeExit:
		return "EXIT"
	case TypePlayer:
		return "PLAYER"
	case TypeGarbage:
		return "GARBAGE"
	default:
		return "UNKNOWN"
	}
}

const TypeMask = 0x7

// Flag constants - first word. Only the bits the evaluator consults are kept.
const (
	FlagWizard = 0x00000010
	FlagDark   = 0x00000040
	FlagHalt   = 0x00001000
	FlagTrace  = 0x00002000
	FlagGoing  = 0x00004000
	FlagSafe   = 0x10000000
)

// Flag constants - second word
const (
	Flag2Ansi        = 0x00002000
	Flag2HasRedirect = 0x00000400
	Flag2Staff       = 0x10000000
)

// Attribute flag constants
const (
	AFODark    = 0x00000001 // Only owner can see
	AFDark     = 0x00000002 // Only God (#1) can see
	AFWizard   = 0x00000004 // Only wizards can change
	AFMDark    = 0x00000008 // Only wizards can see
	AFInternal = 0x00000010 // Don't show even to God
	AFPrivate  = 0x00001000 // Not inherited by children
	AFVisual   = 0x00000800 // Anyone can see
)

// Attribute is a single attribute value on an object.
type Attribute struct {
	Number int
	Owner  DBRef
	Flags  int
	Value  string
}

// AttrDef represents a user-defined attribute name definition.
type AttrDef struct {
	Number int
	Name   string
	Flags  int
}

// User function flags, stored on UFuncDef.
const (
	UfPriv   = 0x1 // Run as the defining object
	UfPres   = 0x2 // Snapshot and restore the caller's registers
	UfNoregs = 0x4 // Run with a private, empty register store
	UfNoEval = 0x8 // Pass arguments unevaluated
)

// UFuncDef is a persisted @function definition: softcode NAME() runs the
// body stored in Obj/Attr.
type UFuncDef struct {
	Name  string
	Obj   DBRef
	Attr  int
	Flags int
	Perms int
}

// Object represents a database object.
type Object struct {
	DBRef      DBRef
	Name       string
	Location   DBRef
	Owner      DBRef
	Parent     DBRef
	Flags      [3]int
	CreateTime time.Time
	Attrs      []Attribute
}

// ObjType returns the object type from the flags.
func (o *Object) ObjType() ObjectType {
	return ObjectType(o.Flags[0] & TypeMask)
}

// HasFlag checks if a flag bit is set in the first flag word.
func (o *Object) HasFlag(flag int) bool {
	return o.Flags[0]&flag != 0
}

// HasFlag2 checks if a flag bit is set in the second flag word.
func (o *Object) HasFlag2(flag int) bool {
	return o.Flags[1]&flag != 0
}

// SetFlag sets or clears a first-word flag bit.
func (o *Object) SetFlag(flag int, set bool) {
	if set {
		o.Flags[0] |= flag
	} else {
		o.Flags[0] &^= flag
	}
}

// IsGoing returns true if the object is marked for destruction.
func (o *Object) IsGoing() bool {
	return o.HasFlag(FlagGoing)
}

// IsWizard reports whether the object carries the WIZARD flag.
func (o *Object) IsWizard() bool {
	return o.HasFlag(FlagWizard)
}

// Attr returns the attribute stored directly on the object.
func (o *Object) Attr(num int) (Attribute, bool) {
	for _, a := range o.Attrs {
		if a.Number == num {
			return a, true
		}
	}
	return Attribute{}, false
}

// SetAttr stores or replaces an attribute. An empty value removes it.
func (o *Object) SetAttr(a Attribute) {
	for i := range o.Attrs {
		if o.Attrs[i].Number == a.Number {
			if a.Value == "" {
				o.Attrs = append(o.Attrs[:i], o.Attrs[i+1:]...)
			} else {
				o.Attrs[i] = a
			}
			return
		}
	}
	if a.Value != "" {
		o.Attrs = append(o.Attrs, a)
	}
}
