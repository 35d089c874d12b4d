package eval

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	tz := Tokenizer{Compress: true}
	tests := []struct {
		in    string
		delim byte
		eval  int
		want  []string
	}{
		{"a,b,[c,d],e", ',', 0, []string{"a", "b", "[c,d]", "e"}},
		{"", ',', 0, []string{""}},
		{"abc", ',', 0, []string{"abc"}},
		{" a , b ", ',', 0, []string{"a", "b"}},
		{`a\,b,c`, ',', 0, []string{`a\,b`, "c"}},
		{`a\,b,c`, ',', EvStripESC, []string{"a,b", "c"}},
		{"%,a,b", ',', 0, []string{"%,a", "b"}},
		{"{a,b},c", ',', 0, []string{"{a,b}", "c"}},
		{"{a,b},c", ',', EvStrip, []string{"a,b", "c"}},
		{"f(x,y),z", ',', 0, []string{"f(x,y)", "z"}},
		{"[a)b],c", ',', 0, []string{"[a)b]", "c"}},
		{"a,,b", ',', 0, []string{"a", "", "b"}},
		{"a,b", 0, 0, []string{"a,b"}},
	}
	for _, tt := range tests {
		got := tz.Split(tt.in, tt.delim, tt.eval)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Split(%q, %q) mismatch (-want +got):\n%s", tt.in, tt.delim, diff)
		}
	}
}

func TestParseTo(t *testing.T) {
	tz := Tokenizer{Compress: true}
	tests := []struct {
		in, tok, rest string
		delim         byte
		eval          int
		found         bool
	}{
		{"abc)def", "abc", "def", ')', 0, true},
		{"(a]b)]tail", "(a]b)", "tail", ']', 0, true},
		{"no closer", "no closer", "", ')', 0, false},
		{"{ x },y", "x", "y", ',', EvStripAround, true},
		{"{x}z,y", "{x}z", "y", ',', EvStripAround, true},
		{"a   b,c", "a b", "c", ',', 0, true},
		{"a   b,c", "a   b", "c", ',', EvNoCompress, true},
	}
	for _, tt := range tests {
		tok, rest, found := tz.ParseTo(tt.in, tt.delim, tt.eval)
		if tok != tt.tok || rest != tt.rest || found != tt.found {
			t.Errorf("ParseTo(%q, %q) = %q, %q, %v; want %q, %q, %v",
				tt.in, tt.delim, tok, rest, found, tt.tok, tt.rest, tt.found)
		}
	}
}

func TestParseToStripFlags(t *testing.T) {
	tests := []struct {
		in, tok string
		eval    int
	}{
		{"  a  ,c", "  a  ", 0},
		{"  a b,c", "a b", EvStripLS},
		{"a  ,c", "a ", EvStripTS},
		{"  a  ,c", "a ", EvStripLS | EvStripTS},
		{"{ x },y", " x ", EvStripAround},
		{"  { x } ,y", "x", EvStripLS | EvStripTS | EvStripAround},
		{"{ x } ,y", " x", EvStripTS | EvStripAround},
		{"  a  ,c", "  a  ", EvStripLS | EvStripTS | EvNoCompress},
	}
	for _, tt := range tests {
		tok, rest, found := Tokenizer{}.ParseTo(tt.in, ',', tt.eval)
		if tok != tt.tok || !found || len(rest) != 1 {
			t.Errorf("ParseTo(%q, %#x) = %q, %q, %v; want %q", tt.in, tt.eval, tok, rest, found, tt.tok)
		}
	}
}

func TestParseToStackOverflow(t *testing.T) {
	in := strings.Repeat("(", 33) + strings.Repeat(")", 33) + "z"
	tok, rest, found := Tokenizer{}.ParseTo(in, ')', 0)
	want := strings.Repeat("(", 33) + strings.Repeat(")", 32)
	if !found || tok != want || rest != "z" {
		t.Errorf("overflowed stack: tok=%q rest=%q found=%v", tok, rest, found)
	}

	tok, rest, _ = Tokenizer{StackLimit: 2}.ParseTo("(((a)))b", ')', 0)
	if tok != "(((a))" || rest != "b" {
		t.Errorf("limit 2: tok=%q rest=%q", tok, rest)
	}
}

func TestParseArgList(t *testing.T) {
	e := newTestEnv(t)
	tests := []struct {
		in     string
		eval   int
		nfargs int
		want   []string
		rest   string
	}{
		{"a, b ,c)rest", 0, MaxNFArgs, []string{"a", "b", "c"}, "rest"},
		{"a,b,c)", 0, 2, []string{"a", "b,c"}, ""},
		{")x", 0, MaxNFArgs, []string{""}, "x"},
		{"add(1,2),x)", EvEval, MaxNFArgs, []string{"3", "x"}, ""},
		{"add(1,2),x)", 0, MaxNFArgs, []string{"add(1,2)", "x"}, ""},
	}
	for _, tt := range tests {
		src := []byte(tt.in)
		args, next, found := e.ctx.parseArgList(src, ')', tt.eval, tt.nfargs, nil)
		if !found {
			t.Errorf("parseArgList(%q) not terminated", tt.in)
			continue
		}
		if diff := cmp.Diff(tt.want, args); diff != "" {
			t.Errorf("parseArgList(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
		if rest := string(src[next:]); rest != tt.rest {
			t.Errorf("parseArgList(%q) rest = %q, want %q", tt.in, rest, tt.rest)
		}
	}

	if _, _, found := e.ctx.parseArgList([]byte("a,b"), ')', 0, MaxNFArgs, nil); found {
		t.Error("unterminated list reported found")
	}
}
