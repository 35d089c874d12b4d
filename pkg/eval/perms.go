package eval

import "github.com/crystal-mush/softeval/pkg/gamedb"

// Permission bits carried on function descriptors.
const (
	PermWizard = 0x1
	PermGod    = 0x2
	PermStaff  = 0x4
)

// God is the one object every check passes for.
const God gamedb.DBRef = 1

// DefaultPermissions implements Permissions from object flags.
type DefaultPermissions struct {
	World World
}

func (p DefaultPermissions) isWizard(player gamedb.DBRef) bool {
	if player == God {
		return true
	}
	obj, ok := p.World.Object(player)
	return ok && obj.IsWizard()
}

// CanCall checks a function's permission bits against player.
func (p DefaultPermissions) CanCall(player gamedb.DBRef, fn Callable) bool {
	perms := fn.FuncPerms()
	if fn.FuncFlags()&FnPriv != 0 {
		perms |= PermWizard
	}
	switch {
	case perms&PermGod != 0:
		return player == God
	case perms&PermWizard != 0:
		return p.isWizard(player)
	case perms&PermStaff != 0:
		if p.isWizard(player) {
			return true
		}
		obj, ok := p.World.Object(player)
		return ok && obj.HasFlag2(gamedb.Flag2Staff)
	}
	return true
}

// CanSeeAttr reports whether player may read attr on obj.
func (p DefaultPermissions) CanSeeAttr(player, obj gamedb.DBRef, attr gamedb.Attribute) bool {
	switch {
	case attr.Flags&gamedb.AFInternal != 0:
		return false
	case player == God:
		return true
	case attr.Flags&gamedb.AFDark != 0:
		return false
	case attr.Flags&gamedb.AFVisual != 0:
		return true
	case attr.Flags&gamedb.AFMDark != 0:
		return p.isWizard(player)
	case attr.Flags&gamedb.AFODark != 0:
		if p.isWizard(player) || attr.Owner == player {
			return true
		}
		o, ok := p.World.Object(obj)
		return ok && o.Owner == player
	}
	return true
}

// AllowAll passes every check.
type AllowAll struct{}

func (AllowAll) CanCall(gamedb.DBRef, Callable) bool {
	return true
}

func (AllowAll) CanSeeAttr(gamedb.DBRef, gamedb.DBRef, gamedb.Attribute) bool {
	return true
}
