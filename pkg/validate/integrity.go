package validate

import (
	"fmt"
	"sort"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// maxParentWalk bounds parent-chain loop detection.
const maxParentWalk = 100

// IntegrityChecker checks the references the evaluator follows: owners,
// locations, parents, @function bodies and trace redirects.
type IntegrityChecker struct{}

func (c *IntegrityChecker) Name() string { return "integrity" }

func (c *IntegrityChecker) Check(db *gamedb.Database) []Finding {
	var findings []Finding
	seq := 0
	add := func(f Finding) {
		f.ID = fmt.Sprintf("integrity-%d", seq)
		seq++
		findings = append(findings, f)
	}
	missing := func(ref gamedb.DBRef) bool {
		_, ok := db.Objects[ref]
		return !ok
	}

	eachObject(db, func(obj *gamedb.Object) {
		ref := obj.DBRef
		switch obj.Location {
		case gamedb.Nothing, gamedb.Ambiguous, gamedb.Home:
		default:
			if missing(obj.Location) {
				add(Finding{Category: CatIntegrityError, Severity: SevError, ObjectRef: ref,
					Description: fmt.Sprintf("%s location %s does not exist", ref, obj.Location)})
			}
		}

		if owner, ok := db.Objects[obj.Owner]; !ok {
			add(Finding{Category: CatIntegrityError, Severity: SevError, ObjectRef: ref,
				Description: fmt.Sprintf("%s owner %s does not exist", ref, obj.Owner)})
		} else if owner.ObjType() != gamedb.TypePlayer {
			add(Finding{Category: CatIntegrityWarn, Severity: SevWarning, ObjectRef: ref,
				Description: fmt.Sprintf("%s owner %s is not a player (type=%s)", ref, obj.Owner, owner.ObjType())})
		}

		if obj.Parent != gamedb.Nothing && missing(obj.Parent) {
			add(Finding{Category: CatIntegrityError, Severity: SevError, ObjectRef: ref,
				Description: fmt.Sprintf("%s parent %s does not exist", ref, obj.Parent)})
		} else if at, ok := parentLoop(db, ref); ok {
			add(Finding{Category: CatIntegrityError, Severity: SevError, ObjectRef: ref,
				Description: fmt.Sprintf("%s parent chain loops at %s", ref, at)})
		}

		for _, attr := range obj.Attrs {
			if attr.Owner != gamedb.Nothing && missing(attr.Owner) {
				add(Finding{Category: CatIntegrityWarn, Severity: SevWarning, ObjectRef: ref,
					AttrNum: attr.Number, AttrName: attrName(db, attr.Number),
					Description: fmt.Sprintf("%s/%s owner %s does not exist", ref, attrName(db, attr.Number), attr.Owner)})
			}
		}
	})

	for _, def := range db.UFuncList() {
		obj, ok := db.Objects[def.Obj]
		if !ok {
			add(Finding{Category: CatIntegrityError, Severity: SevError, ObjectRef: def.Obj,
				Description: fmt.Sprintf("@function %s body object %s does not exist", def.Name, def.Obj)})
			continue
		}
		if _, set := obj.Attr(def.Attr); !set {
			add(Finding{Category: CatIntegrityWarn, Severity: SevWarning, ObjectRef: def.Obj,
				AttrNum: def.Attr, AttrName: attrName(db, def.Attr),
				Description: fmt.Sprintf("@function %s body %s/%s is empty", def.Name, def.Obj, attrName(db, def.Attr))})
		}
	}

	for _, from := range sortedRefs(db.Redirects) {
		target := db.Redirects[from]
		if !missing(target) {
			continue
		}
		add(Finding{Category: CatIntegrityWarn, Severity: SevWarning, ObjectRef: from,
			Description: fmt.Sprintf("%s trace redirect target %s does not exist", from, target),
			Fixable:     true,
			fixFunc:     func() { delete(db.Redirects, from) },
		})
	}
	return findings
}

// parentLoop reports the first object revisited while walking ref's
// parent chain.
func parentLoop(db *gamedb.Database, ref gamedb.DBRef) (gamedb.DBRef, bool) {
	seen := map[gamedb.DBRef]bool{ref: true}
	cur := ref
	for i := 0; i < maxParentWalk; i++ {
		obj, ok := db.Objects[cur]
		if !ok || obj.Parent == gamedb.Nothing {
			return gamedb.Nothing, false
		}
		cur = obj.Parent
		if seen[cur] {
			return cur, true
		}
		seen[cur] = true
	}
	return cur, true
}

func eachObject(db *gamedb.Database, fn func(obj *gamedb.Object)) {
	for _, ref := range sortedRefs(db.Objects) {
		if obj := db.Objects[ref]; !obj.IsGoing() {
			fn(obj)
		}
	}
}

func sortedRefs[V any](m map[gamedb.DBRef]V) []gamedb.DBRef {
	refs := make([]gamedb.DBRef, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}
