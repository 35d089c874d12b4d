package gamedb

import "testing"

func TestParentAttrWalksChain(t *testing.T) {
	db := Minimal()
	db.AddObject(&Object{DBRef: 2, Name: "Parent", Location: 0, Owner: 1, Parent: Nothing})
	db.AddObject(&Object{DBRef: 3, Name: "Child", Location: 0, Owner: 1, Parent: 2})
	num := db.DefineAttr("GREET")
	db.SetAttr(2, num, "hello")

	if _, ok := db.GetAttr(3, num); ok {
		t.Fatal("GetAttr found inherited attribute on child")
	}
	a, ok := db.ParentAttr(3, num)
	if !ok || a.Value != "hello" {
		t.Fatalf("ParentAttr = %q, %v; want hello", a.Value, ok)
	}

	o, _ := db.Object(2)
	o.SetAttr(Attribute{Number: num, Owner: 1, Flags: AFPrivate, Value: "secret"})
	if _, ok := db.ParentAttr(3, num); ok {
		t.Error("private parent attribute was inherited")
	}
	if a, ok := db.ParentAttr(2, num); !ok || a.Value != "secret" {
		t.Errorf("ParentAttr(self) = %q, %v; want secret", a.Value, ok)
	}
}

func TestAttrNum(t *testing.T) {
	db := NewDatabase()
	if num, ok := db.AttrNum("sex"); !ok || num != AttrSex {
		t.Errorf("AttrNum(sex) = %d, %v", num, ok)
	}
	first := db.DefineAttr("foo")
	if again := db.DefineAttr("FOO"); again != first {
		t.Errorf("DefineAttr not stable: %d vs %d", first, again)
	}
	if first < UserAttrBase {
		t.Errorf("user attr %d below base", first)
	}
	if db.AttrName(first) != "FOO" {
		t.Errorf("AttrName = %q", db.AttrName(first))
	}
}

func TestSetAttrEmptyRemoves(t *testing.T) {
	db := Minimal()
	db.SetAttr(1, AttrSex, "male")
	db.SetAttr(1, AttrSex, "")
	if _, ok := db.GetAttr(1, AttrSex); ok {
		t.Error("empty SetAttr left attribute behind")
	}
}

func TestRedirectTarget(t *testing.T) {
	db := Minimal()
	db.Redirects[1] = 0
	if got, ok := db.RedirectTarget(1); !ok || got != 0 {
		t.Errorf("RedirectTarget = %v, %v", got, ok)
	}
	db.Redirects[1] = 99
	if _, ok := db.RedirectTarget(1); ok {
		t.Error("redirect to missing object accepted")
	}
	if _, still := db.Redirects[1]; still {
		t.Error("stale redirect not cleared")
	}
}
