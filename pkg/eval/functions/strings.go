package functions

import (
	"strings"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

func fnUcstr(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	buf.WriteString(strings.ToUpper(args[0]))
}

func fnLcstr(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	buf.WriteString(strings.ToLower(args[0]))
}

// fnStrlen counts visible characters, skipping ANSI escapes.
func fnStrlen(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	writeInt(buf, visibleLen(args[0]))
}

func fnCat(_ *eval.EvalContext, args []string, buf *eval.Buffer, _, _ gamedb.DBRef) {
	buf.WriteString(strings.Join(args, " "))
}

func visibleLen(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			i++
			if i < len(s) && s[i] == '[' {
				for i+1 < len(s) && s[i+1]&0xf0 == 0x30 {
					i++
				}
				i++
			}
			continue
		}
		n++
	}
	return n
}
