package eval

import (
	"strconv"
	"strings"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// CallUFun calls the softcode stored in "obj/attr" (or "attr" on the
// executor) with callArgs as %0-%9. The code runs with obj as executor and
// the current executor as caller.
func (ctx *EvalContext) CallUFun(objAttr string, callArgs []string) string {
	ref, num, errTok := ctx.resolveObjAttr(objAttr)
	if errTok != "" {
		return errTok
	}
	attr, ok := ctx.World.ParentAttr(ref, num)
	if !ok || attr.Value == "" {
		return ""
	}
	if !ctx.Perms.CanSeeAttr(ctx.Player, ref, attr) {
		return ErrPermission
	}

	oldPlayer, oldCaller := ctx.Player, ctx.Caller
	ctx.Player, ctx.Caller = ref, oldPlayer
	result := ctx.Exec(attr.Value, EvFCheck|EvEval, callArgs)
	ctx.Player, ctx.Caller = oldPlayer, oldCaller
	return result
}

// GetAttrByNameHelper fetches an attribute's text by name, walking the
// parent chain and honoring read permission for the executor.
func (ctx *EvalContext) GetAttrByNameHelper(ref gamedb.DBRef, attrName string) string {
	num, ok := ctx.World.AttrNum(attrName)
	if !ok {
		return ""
	}
	attr, ok := ctx.World.ParentAttr(ref, num)
	if !ok || !ctx.Perms.CanSeeAttr(ctx.Player, ref, attr) {
		return ""
	}
	return attr.Value
}

func (ctx *EvalContext) resolveObjAttr(objAttr string) (gamedb.DBRef, int, string) {
	ref := ctx.Player
	attrName := objAttr
	if obj, attr, found := strings.Cut(objAttr, "/"); found {
		ref = ctx.ResolveDBRef(obj)
		if ref == gamedb.Nothing {
			return gamedb.Nothing, 0, "#-1 NOT FOUND"
		}
		attrName = attr
	}
	attrName = strings.TrimSpace(attrName)
	if attrName == "" {
		return gamedb.Nothing, 0, "#-1 NO SUCH ATTRIBUTE"
	}
	num, ok := ctx.World.AttrNum(attrName)
	if !ok {
		return ref, 0, ""
	}
	return ref, num, ""
}

// ResolveDBRef converts "#N", "me" or "here" to a DBRef.
func (ctx *EvalContext) ResolveDBRef(s string) gamedb.DBRef {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return gamedb.Nothing
	case strings.EqualFold(s, "me"):
		return ctx.Player
	case strings.EqualFold(s, "here"):
		if obj, ok := ctx.World.Object(ctx.Player); ok {
			return obj.Location
		}
		return gamedb.Nothing
	case s[0] == '#':
		n, err := strconv.Atoi(s[1:])
		if err != nil {
			return gamedb.Nothing
		}
		ref := gamedb.DBRef(n)
		if _, ok := ctx.World.Object(ref); !ok {
			return gamedb.Nothing
		}
		return ref
	}
	return gamedb.Nothing
}
