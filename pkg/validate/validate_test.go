package validate

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// makeTestDB returns the minimal world plus objects.
func makeTestDB(objects ...*gamedb.Object) *gamedb.Database {
	db := gamedb.Minimal()
	for _, obj := range objects {
		db.Objects[obj.DBRef] = obj
	}
	return db
}

func thing(ref gamedb.DBRef, attrs ...gamedb.Attribute) *gamedb.Object {
	return &gamedb.Object{
		DBRef: ref, Name: "Test Object", Location: 0, Owner: 1, Parent: gamedb.Nothing,
		Flags: [3]int{int(gamedb.TypeThing), 0, 0}, Attrs: attrs,
	}
}

func TestMinimalWorldIsClean(t *testing.T) {
	reg := eval.NewRegistry()
	if findings := New(gamedb.Minimal(), reg).Run(); len(findings) != 0 {
		t.Errorf("minimal world findings: %+v", findings)
	}
}

func TestCheckBalance(t *testing.T) {
	tests := map[string]string{
		"[add(1,2)]":         "",
		"plain :) text":      "",
		`\[not a call`:       "",
		"%[ literal":         "",
		"{a[b]c}":            "",
		"[add(1,2]":          `']' at 8 closes '(' opened at 4`,
		"[add(1,2)":          `unclosed '[' opened at 0`,
		"text]":              `unmatched ']' at 4`,
		"{open":              `unclosed '{' opened at 0`,
		"[u(me/x,{a,b})] ok": "",
	}
	for in, want := range tests {
		got, ok := checkBalance(in)
		if ok != (want == "") || got != want {
			t.Errorf("checkBalance(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
}

func TestBracketChecker(t *testing.T) {
	db := makeTestDB(thing(5, gamedb.Attribute{Number: gamedb.AttrVA, Value: "[add(1,2"}))
	findings := (&BracketChecker{}).Check(db)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Category != CatBrackets || f.Severity != SevError || f.ObjectRef != 5 || f.AttrName != "VA" {
		t.Errorf("finding = %+v", f)
	}
	if f.Fixable {
		t.Error("bracket findings should not be fixable")
	}
}

func TestFunctionChecker(t *testing.T) {
	reg := eval.NewRegistry()
	reg.RegisterFunction("ADD", func(*eval.EvalContext, []string, *eval.Buffer, gamedb.DBRef, gamedb.DBRef) {}, 2, 0)
	db := makeTestDB(thing(5, gamedb.Attribute{Number: gamedb.AttrVA, Value: "[add(1,[nope(2)])] [double(3)] [frob(1)] \\[esc(1)]"}))
	db.UFuncs["DOUBLE"] = &gamedb.UFuncDef{Name: "DOUBLE", Obj: 5, Attr: gamedb.AttrVA}

	findings := (&FunctionChecker{Funcs: reg}).Check(db)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if !strings.Contains(findings[0].Description, "frob(), nope()") {
		t.Errorf("description = %q", findings[0].Description)
	}
}

func TestCalledFunctions(t *testing.T) {
	got := strings.Join(calledFunctions("[a(1)][b.c(2)]%[d(3)] [ e(4)] [f]"), ",")
	if got != "A,B.C" {
		t.Errorf("calledFunctions = %q", got)
	}
}

func TestPercentFixApply(t *testing.T) {
	obj := thing(7, gamedb.Attribute{Number: gamedb.AttrVA, Value: `say \\%r and \\%t`})
	db := makeTestDB(obj)

	v := New(db, nil)
	findings := v.Run()
	if len(findings) != 1 || findings[0].Category != CatPercent {
		t.Fatalf("findings = %+v", findings)
	}
	if !strings.HasPrefix(findings[0].Description, "2 backslash-percent") {
		t.Errorf("description = %q", findings[0].Description)
	}
	if err := v.ApplyFix(findings[0].ID); err != nil {
		t.Fatalf("ApplyFix failed: %v", err)
	}
	if got, want := obj.Attrs[0].Value, `say \%r and \%t`; got != want {
		t.Errorf("fixed value = %q, want %q", got, want)
	}
	if err := v.ApplyFix(findings[0].ID); err == nil {
		t.Error("second ApplyFix should fail")
	}
	if err := v.ApplyFix("nope"); err == nil {
		t.Error("unknown ID should fail")
	}
}

func TestIntegrityChecker(t *testing.T) {
	orphan := thing(10)
	orphan.Owner = 50
	orphan.Location = 51
	looped := thing(11)
	looped.Parent = 12
	looped2 := thing(12)
	looped2.Parent = 11
	thingOwned := thing(13)
	thingOwned.Owner = 11

	db := makeTestDB(orphan, looped, looped2, thingOwned)
	db.UFuncs["GONE"] = &gamedb.UFuncDef{Name: "GONE", Obj: 60, Attr: gamedb.AttrVA}
	db.UFuncs["EMPTY"] = &gamedb.UFuncDef{Name: "EMPTY", Obj: 1, Attr: gamedb.AttrVA}
	db.Redirects[1] = 70

	findings := (&IntegrityChecker{}).Check(db)
	var descs []string
	for _, f := range findings {
		descs = append(descs, f.Description)
	}
	all := strings.Join(descs, "\n")
	for _, want := range []string{
		"#10 location #51 does not exist",
		"#10 owner #50 does not exist",
		"#11 parent chain loops at #11",
		"#12 parent chain loops at #12",
		"#13 owner #11 is not a player (type=THING)",
		"@function EMPTY body #1/VA is empty",
		"@function GONE body object #60 does not exist",
		"#1 trace redirect target #70 does not exist",
	} {
		if !strings.Contains(all, want) {
			t.Errorf("missing finding %q in:\n%s", want, all)
		}
	}
}

func TestApplyAllAndReport(t *testing.T) {
	db := makeTestDB(thing(5, gamedb.Attribute{Number: gamedb.AttrVA, Value: `\\%r`}))
	db.Redirects[5] = 99

	v := New(db, nil)
	v.Run()
	touched := v.ApplyAll()
	if len(touched) != 1 || touched[0] != 5 {
		t.Errorf("touched = %v", touched)
	}
	if _, ok := db.Redirects[5]; ok {
		t.Error("stale redirect not removed")
	}
	if got := v.Summary()[CatPercent]; got != 1 {
		t.Errorf("percent summary = %d", got)
	}

	r := GenerateReport(v)
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var back Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if back.TotalFindings != 2 || back.Categories["percent"].Fixed != 1 {
		t.Errorf("report = %+v", back)
	}

	buf.Reset()
	if err := r.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(fixed)") || !strings.HasSuffix(buf.String(), "2 finding(s)\n") {
		t.Errorf("text report:\n%s", buf.String())
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CatBrackets, "brackets"},
		{CatUnknownFunc, "unknown-function"},
		{CatIntegrityWarn, "integrity-warning"},
		{Category(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
