package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// FunctionChecker reports [name(...)] calls that resolve to neither a
// builtin nor a @function. Those evaluate to a NOT FOUND error token.
type FunctionChecker struct {
	Funcs *eval.Registry
}

func (c *FunctionChecker) Name() string { return "functions" }

func (c *FunctionChecker) Check(db *gamedb.Database) []Finding {
	known := func(name string) bool {
		if _, ok := c.Funcs.Lookup(name); ok {
			return true
		}
		_, ok := db.UFuncs[name]
		return ok
	}

	var findings []Finding
	eachAttr(db, func(obj *gamedb.Object, idx int, attr gamedb.Attribute) {
		missing := make(map[string]bool)
		for _, name := range calledFunctions(attr.Value) {
			if !known(name) {
				missing[name] = true
			}
		}
		if len(missing) == 0 {
			return
		}
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, strings.ToLower(n)+"()")
		}
		sort.Strings(names)
		name := attrName(db, attr.Number)
		findings = append(findings, Finding{
			ID:          fmt.Sprintf("obj%d-attr%d-fn", obj.DBRef, attr.Number),
			Category:    CatUnknownFunc,
			Severity:    SevWarning,
			ObjectRef:   obj.DBRef,
			AttrNum:     attr.Number,
			AttrName:    name,
			Description: fmt.Sprintf("unknown function(s) %s in %s on %s", strings.Join(names, ", "), name, obj.DBRef),
			Current:     truncate(attr.Value, 200),
		})
	})
	return findings
}

// calledFunctions returns the upper-cased names that directly follow an
// unescaped [ and are followed by (.
func calledFunctions(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\', '%':
			i++
			continue
		case '[':
		default:
			continue
		}
		j := i + 1
		for j < len(text) && isNameByte(text[j]) {
			j++
		}
		if j > i+1 && j < len(text) && text[j] == '(' {
			out = append(out, strings.ToUpper(text[i+1:j]))
		}
	}
	return out
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
