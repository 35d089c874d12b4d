package gamedb

import (
	"sort"
	"strings"
	"time"
)

// maxParentDepth bounds parent-chain walks.
const maxParentDepth = 10

// Database holds the in-memory world state the evaluator reads.
type Database struct {
	NextAttr   int
	Objects    map[DBRef]*Object
	AttrNames  map[int]*AttrDef    // attr number -> definition
	AttrByName map[string]*AttrDef // attr name -> definition
	UFuncs     map[string]*UFuncDef
	Redirects  map[DBRef]DBRef // trace/output redirection, object -> target
}

// NewDatabase creates an empty Database.
func NewDatabase() *Database {
	return &Database{
		NextAttr:   UserAttrBase,
		Objects:    make(map[DBRef]*Object),
		AttrNames:  make(map[int]*AttrDef),
		AttrByName: make(map[string]*AttrDef),
		UFuncs:     make(map[string]*UFuncDef),
		Redirects:  make(map[DBRef]DBRef),
	}
}

// AddAttrDef registers a user-defined attribute.
func (db *Database) AddAttrDef(num int, name string, flags int) {
	name = strings.ToUpper(name)
	def := &AttrDef{Number: num, Name: name, Flags: flags}
	db.AttrNames[num] = def
	db.AttrByName[name] = def
	if num >= db.NextAttr {
		db.NextAttr = num + 1
	}
}

// DefineAttr returns the number for name, allocating a user attribute
// definition if the name is unknown.
func (db *Database) DefineAttr(name string) int {
	if num, ok := db.AttrNum(name); ok {
		return num
	}
	num := db.NextAttr
	db.AddAttrDef(num, name, 0)
	return num
}

// AttrNum resolves an attribute name to its number.
func (db *Database) AttrNum(name string) (int, bool) {
	if def, ok := db.AttrByName[strings.ToUpper(name)]; ok {
		return def.Number, true
	}
	return LookupWellKnown(name)
}

// AttrName returns the name for an attribute number, or "" if unknown.
func (db *Database) AttrName(num int) string {
	if def, ok := db.AttrNames[num]; ok {
		return def.Name
	}
	return WellKnownAttrs[num]
}

// Object returns the object for ref.
func (db *Database) Object(ref DBRef) (*Object, bool) {
	obj, ok := db.Objects[ref]
	return obj, ok
}

// AddObject stores obj, stamping a creation time if it has none.
func (db *Database) AddObject(obj *Object) {
	if obj.CreateTime.IsZero() {
		obj.CreateTime = time.Now()
	}
	db.Objects[obj.DBRef] = obj
}

// GetAttr fetches an attribute stored directly on obj.
func (db *Database) GetAttr(obj DBRef, num int) (Attribute, bool) {
	o, ok := db.Objects[obj]
	if !ok {
		return Attribute{}, false
	}
	return o.Attr(num)
}

// ParentAttr fetches an attribute from obj or the first ancestor defining
// it. Ancestors' private attributes are not inherited.
func (db *Database) ParentAttr(obj DBRef, num int) (Attribute, bool) {
	current := obj
	for depth := 0; depth <= maxParentDepth; depth++ {
		o, ok := db.Objects[current]
		if !ok {
			return Attribute{}, false
		}
		if a, ok := o.Attr(num); ok {
			if depth == 0 || a.Flags&AFPrivate == 0 {
				return a, true
			}
		}
		if o.Parent == Nothing || o.Parent == current {
			return Attribute{}, false
		}
		current = o.Parent
	}
	return Attribute{}, false
}

// SetAttr writes an attribute value on obj, owned by the object's owner.
func (db *Database) SetAttr(obj DBRef, num int, value string) bool {
	o, ok := db.Objects[obj]
	if !ok {
		return false
	}
	flags := 0
	if def, ok := db.AttrNames[num]; ok {
		flags = def.Flags
	}
	o.SetAttr(Attribute{Number: num, Owner: o.Owner, Flags: flags, Value: value})
	return true
}

// RedirectTarget reports where obj's trace output is redirected, if anywhere.
func (db *Database) RedirectTarget(obj DBRef) (DBRef, bool) {
	target, ok := db.Redirects[obj]
	if !ok {
		return Nothing, false
	}
	if _, exists := db.Objects[target]; !exists {
		delete(db.Redirects, obj)
		return Nothing, false
	}
	return target, true
}

// UFuncList returns the user function definitions sorted by name.
func (db *Database) UFuncList() []*UFuncDef {
	out := make([]*UFuncDef, 0, len(db.UFuncs))
	for _, def := range db.UFuncs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Minimal seeds the two objects every world has: room #0 and God #1.
func Minimal() *Database {
	db := NewDatabase()
	db.AddObject(&Object{
		DBRef: 0, Name: "Limbo", Location: Nothing, Owner: 1, Parent: Nothing,
		Flags: [3]int{int(TypeRoom), 0, 0},
	})
	db.AddObject(&Object{
		DBRef: 1, Name: "Wizard", Location: 0, Owner: 1, Parent: Nothing,
		Flags: [3]int{int(TypePlayer) | FlagWizard, 0, 0},
	})
	return db
}
