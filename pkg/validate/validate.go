// Package validate lints softcode stored in a world: unbalanced brackets,
// calls to unknown functions, double-escaped percent codes, and broken
// object or @function references.
package validate

import (
	"fmt"
	"sort"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// Category classifies the type of finding.
type Category int

const (
	CatBrackets       Category = iota // Unbalanced [], () or {}
	CatUnknownFunc                    // Call to a function the registry lacks
	CatPercent                        // \\% patterns
	CatIntegrityError                 // Broken references
	CatIntegrityWarn                  // Suspicious references
)

func (c Category) String() string {
	switch c {
	case CatBrackets:
		return "brackets"
	case CatUnknownFunc:
		return "unknown-function"
	case CatPercent:
		return "percent"
	case CatIntegrityError:
		return "integrity-error"
	case CatIntegrityWarn:
		return "integrity-warning"
	default:
		return "unknown"
	}
}

// Severity indicates how serious a finding is.
type Severity int

const (
	SevError   Severity = iota // Evaluation will not do what the author meant
	SevWarning                 // Should be reviewed
	SevInfo                    // Informational only
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	case SevInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Finding is a single issue detected in the world.
type Finding struct {
	ID          string       `json:"id"`
	Category    Category     `json:"category"`
	Severity    Severity     `json:"severity"`
	ObjectRef   gamedb.DBRef `json:"object_ref"`
	AttrNum     int          `json:"attr_num,omitempty"`
	AttrName    string       `json:"attr_name,omitempty"`
	Description string       `json:"description"`
	Current     string       `json:"current,omitempty"`
	Proposed    string       `json:"proposed,omitempty"`
	Fixable     bool         `json:"fixable"`
	Fixed       bool         `json:"fixed"`
	fixFunc     func()
}

// Checker is one validation pass.
type Checker interface {
	Name() string
	Check(db *gamedb.Database) []Finding
}

// Validator runs every checker against a database.
type Validator struct {
	checkers []Checker
	db       *gamedb.Database
	findings []Finding
}

// New creates a Validator with the built-in checkers. funcs is consulted
// for unknown-function findings; pass nil to skip that check.
func New(db *gamedb.Database, funcs *eval.Registry) *Validator {
	v := &Validator{
		db: db,
		checkers: []Checker{
			&BracketChecker{},
			&PercentChecker{},
			&IntegrityChecker{},
		},
	}
	if funcs != nil {
		v.checkers = append(v.checkers, &FunctionChecker{Funcs: funcs})
	}
	return v
}

// Run executes all checkers and returns findings sorted by dbref then
// attribute number.
func (v *Validator) Run() []Finding {
	v.findings = nil
	for _, c := range v.checkers {
		v.findings = append(v.findings, c.Check(v.db)...)
	}
	sort.SliceStable(v.findings, func(i, j int) bool {
		if v.findings[i].ObjectRef != v.findings[j].ObjectRef {
			return v.findings[i].ObjectRef < v.findings[j].ObjectRef
		}
		return v.findings[i].AttrNum < v.findings[j].AttrNum
	})
	return v.findings
}

// Findings returns the findings of the last Run.
func (v *Validator) Findings() []Finding {
	return v.findings
}

// ApplyFix applies a single fix by finding ID.
func (v *Validator) ApplyFix(id string) error {
	for i := range v.findings {
		if v.findings[i].ID != id {
			continue
		}
		f := &v.findings[i]
		if !f.Fixable {
			return fmt.Errorf("finding %s is not fixable", id)
		}
		if f.Fixed {
			return fmt.Errorf("finding %s is already fixed", id)
		}
		f.fixFunc()
		f.Fixed = true
		return nil
	}
	return fmt.Errorf("finding %s not found", id)
}

// ApplyAll applies every fixable finding and returns the objects touched.
func (v *Validator) ApplyAll() []gamedb.DBRef {
	seen := make(map[gamedb.DBRef]bool)
	var touched []gamedb.DBRef
	for i := range v.findings {
		f := &v.findings[i]
		if !f.Fixable || f.Fixed {
			continue
		}
		f.fixFunc()
		f.Fixed = true
		if !seen[f.ObjectRef] {
			seen[f.ObjectRef] = true
			touched = append(touched, f.ObjectRef)
		}
	}
	return touched
}

// Summary returns counts of findings per category.
func (v *Validator) Summary() map[Category]int {
	m := make(map[Category]int)
	for _, f := range v.findings {
		m[f.Category]++
	}
	return m
}

// attrName names attribute num for display, falling back to A_<n>.
func attrName(db *gamedb.Database, num int) string {
	if name := db.AttrName(num); name != "" {
		return name
	}
	return fmt.Sprintf("A_%d", num)
}

// truncate returns at most max characters of s, adding "..." if truncated.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// eachAttr calls fn for every non-empty attribute on live objects, in
// dbref order so finding IDs are stable.
func eachAttr(db *gamedb.Database, fn func(obj *gamedb.Object, idx int, attr gamedb.Attribute)) {
	eachObject(db, func(obj *gamedb.Object) {
		for i, attr := range obj.Attrs {
			if attr.Value != "" {
				fn(obj, i, attr)
			}
		}
	})
}
