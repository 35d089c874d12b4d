// Package functions holds the core softcode builtins.
package functions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crystal-mush/softeval/pkg/eval"
)

// maxIterNesting bounds nested iter() levels.
const maxIterNesting = 1024

// RegisterAll installs every builtin on ctx's registry.
func RegisterAll(ctx *eval.EvalContext) {
	Register(ctx.Funcs)
}

// Register adds every builtin to r.
func Register(r *eval.Registry) {
	// Registers
	r.RegisterFunction("SETQ", fnSetq, 0, eval.FnVarArgs)
	r.RegisterFunction("SETR", fnSetr, 2, 0)
	r.RegisterFunction("R", fnR, 1, 0)

	// Evaluation
	r.RegisterFunction("LIT", fnLit, -1, eval.FnNoEval)
	r.RegisterFunction("S", fnS, -1, 0)
	r.RegisterFunction("U", fnU, 0, eval.FnVarArgs)
	r.RegisterFunction("ULOCAL", fnUlocal, 0, eval.FnVarArgs)
	r.RegisterFunction("V", fnV, 1, 0)

	// Strings
	r.RegisterFunction("UCSTR", fnUcstr, -1, 0)
	r.RegisterFunction("LCSTR", fnLcstr, -1, 0)
	r.RegisterFunction("STRLEN", fnStrlen, -1, 0)
	r.RegisterFunction("CAT", fnCat, 0, eval.FnVarArgs)

	// Math
	r.RegisterFunction("ADD", fnAdd, 0, eval.FnVarArgs)
	r.RegisterFunction("SUB", fnSub, 2, 0)
	r.RegisterFunction("EQ", fnEq, 2, 0)

	// Control flow
	r.RegisterFunction("IF", fnIf, 0, eval.FnVarArgs|eval.FnNoEval)
	r.RegisterFunction("IFELSE", fnIfElse, 0, eval.FnVarArgs|eval.FnNoEval)
	r.RegisterFunction("SWITCH", fnSwitch, 0, eval.FnVarArgs|eval.FnNoEval)

	// Loops
	r.RegisterFunction("ITER", fnIter, 0, eval.FnVarArgs|eval.FnNoEval)
	r.RegisterFunction("ITEXT", fnItext, 1, 0)
	r.RegisterFunction("ITEXT2", fnItext2, 1, 0)
	r.RegisterFunction("INUM", fnInum, 1, 0)
	r.RegisterFunction("ILEV", fnIlev, 0, 0)
}

// argRange writes the standard arity error and reports false when
// len(args) is outside [lo, hi].
func argRange(buf *eval.Buffer, name string, args []string, lo, hi int) bool {
	n := len(args)
	if n >= lo && n <= hi {
		return true
	}
	fmt.Fprintf(buf, "#-1 FUNCTION (%s) EXPECTS BETWEEN %d AND %d ARGUMENTS BUT GOT %d", name, lo, hi, n)
	return false
}

// isTrue is the boolean reading of a result: empty strings, error tokens
// and numeric zero are false.
func isTrue(s string) bool {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return false
	case strings.HasPrefix(s, "#-"):
		return false
	case s[0] == '#':
		return true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0
	}
	return true
}

// toNum reads a leading number the way strtod does, yielding 0 for text.
func toNum(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && end == 0) {
			end++
			continue
		}
		if (c == 'e' || c == 'E') && end > 0 {
			end++
			continue
		}
		break
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
		end--
	}
	return 0
}

func writeNum(buf *eval.Buffer, f float64) {
	buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
}

func writeInt(buf *eval.Buffer, n int) {
	buf.WriteString(strconv.Itoa(n))
}

// splitList breaks s on delim; a space delimiter collapses runs of spaces.
func splitList(s, delim string) []string {
	if delim == "" || delim == " " {
		return strings.Fields(s)
	}
	if s == "" {
		return nil
	}
	return strings.Split(s, delim)
}

// wildMatch matches str against a case-insensitive glob using * and ?.
func wildMatch(pattern, str string) bool {
	return matchHelper(strings.ToLower(pattern), strings.ToLower(str))
}

func matchHelper(pattern, str string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for i := len(str); i >= 0; i-- {
				if matchHelper(pattern[1:], str[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(str) == 0 {
				return false
			}
		case '\\':
			if len(pattern) > 1 {
				pattern = pattern[1:]
			}
			fallthrough
		default:
			if len(str) == 0 || pattern[0] != str[0] {
				return false
			}
		}
		pattern = pattern[1:]
		str = str[1:]
	}
	return len(str) == 0
}
