package validate

import (
	"fmt"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// BracketChecker reports unbalanced [] and {} anywhere in an attribute,
// and unbalanced () inside a [] frame. Parentheses in plain text are left
// alone; the evaluator only pairs them within function calls.
type BracketChecker struct{}

func (c *BracketChecker) Name() string { return "brackets" }

func (c *BracketChecker) Check(db *gamedb.Database) []Finding {
	var findings []Finding
	eachAttr(db, func(obj *gamedb.Object, idx int, attr gamedb.Attribute) {
		problem, ok := checkBalance(attr.Value)
		if ok {
			return
		}
		name := attrName(db, attr.Number)
		findings = append(findings, Finding{
			ID:          fmt.Sprintf("obj%d-attr%d-br", obj.DBRef, attr.Number),
			Category:    CatBrackets,
			Severity:    SevError,
			ObjectRef:   obj.DBRef,
			AttrNum:     attr.Number,
			AttrName:    name,
			Description: fmt.Sprintf("%s in %s on %s (%s)", problem, name, obj.DBRef, truncate(obj.Name, 30)),
			Current:     truncate(attr.Value, 200),
		})
	})
	return findings
}

type opener struct {
	ch  byte
	pos int
}

// checkBalance scans text the way the evaluator pairs delimiters: \ and %
// escape the next byte. It describes the first problem found.
func checkBalance(text string) (string, bool) {
	var stack []opener
	brackets := 0 // open [ frames on the stack
	for i := 0; i < len(text); i++ {
		switch ch := text[i]; ch {
		case '\\', '%':
			i++
		case '[', '{':
			stack = append(stack, opener{ch, i})
			if ch == '[' {
				brackets++
			}
		case '(':
			if brackets > 0 {
				stack = append(stack, opener{ch, i})
			}
		case ']', '}', ')':
			if ch == ')' && brackets == 0 {
				continue
			}
			want := openerFor(ch)
			if len(stack) == 0 {
				return fmt.Sprintf("unmatched %q at %d", ch, i), false
			}
			top := stack[len(stack)-1]
			if top.ch != want {
				return fmt.Sprintf("%q at %d closes %q opened at %d", ch, i, top.ch, top.pos), false
			}
			stack = stack[:len(stack)-1]
			if ch == ']' {
				brackets--
			}
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return fmt.Sprintf("unclosed %q opened at %d", top.ch, top.pos), false
	}
	return "", true
}

func openerFor(closer byte) byte {
	switch closer {
	case ']':
		return '['
	case '}':
		return '{'
	}
	return '('
}
