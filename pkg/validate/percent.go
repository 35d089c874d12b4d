package validate

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// PercentChecker flags \\% sequences. A single evaluation turns \\ into a
// literal backslash and then runs the % code, so \\%r yields "\" and a
// newline where the author most likely wanted a literal "%r".
type PercentChecker struct{}

func (c *PercentChecker) Name() string { return "percent" }

func (c *PercentChecker) Check(db *gamedb.Database) []Finding {
	var findings []Finding
	eachAttr(db, func(obj *gamedb.Object, idx int, attr gamedb.Attribute) {
		positions := findPercentIssues(attr.Value)
		if len(positions) == 0 {
			return
		}
		name := attrName(db, attr.Number)
		proposed := strings.ReplaceAll(attr.Value, `\\%`, `\%`)
		findings = append(findings, Finding{
			ID:          fmt.Sprintf("obj%d-attr%d-pct", obj.DBRef, attr.Number),
			Category:    CatPercent,
			Severity:    SevWarning,
			ObjectRef:   obj.DBRef,
			AttrNum:     attr.Number,
			AttrName:    name,
			Description: fmt.Sprintf("%d backslash-percent pattern(s) in %s on %s (%s)", len(positions), name, obj.DBRef, truncate(obj.Name, 30)),
			Current:     truncate(attr.Value, 200),
			Proposed:    truncate(proposed, 200),
			Fixable:     true,
			fixFunc: func() {
				obj.Attrs[idx].Value = proposed
			},
		})
	})
	return findings
}

// findPercentIssues returns the offsets of each \\% in text.
func findPercentIssues(text string) []int {
	var out []int
	for i := 0; i+2 < len(text); i++ {
		if text[i] == '\\' && text[i+1] == '\\' && text[i+2] == '%' {
			out = append(out, i)
			i += 2
		}
	}
	return out
}
