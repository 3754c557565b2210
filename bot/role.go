package bot

import (
	"strings"

	"github.com/habiliai/botruntime/errors"
)

// Role selects the combat policy a bot's controller runs.
type Role uint8

const (
	RoleMelee Role = iota
	RoleTank
	RoleHealer
	RoleCaster
	RoleRanged
)

var roleNames = [...]string{
	RoleMelee:  "Melee",
	RoleTank:   "Tank",
	RoleHealer: "Healer",
	RoleCaster: "Caster",
	RoleRanged: "Ranged",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "Unknown"
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if strings.EqualFold(name, s) {
			return Role(i), nil
		}
	}
	return RoleMelee, errors.Wrapf(errors.ErrInvalidRole, "unknown role %q", s)
}

const (
	MinClassID  = 1
	MaxClassID  = 50
	MinRaceID   = 1
	MaxRaceID   = 30
	MaxGenderID = 1

	defaultClassName = "Fighter"
)

type Class struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

var (
	classNames = map[uint8]string{
		1:  "Fighter",
		2:  "Cleric",
		3:  "Wizard",
		4:  "Scout",
		5:  "Armsman",
		6:  "Druid",
		7:  "Hero",
		8:  "Ranger",
		9:  "Eldritch",
		10: "Warrior",
		11: "Runemaster",
		12: "Hunter",
		13: "Healer",
	}
	classRoles = map[string]Role{
		"Cleric":     RoleHealer,
		"Druid":      RoleHealer,
		"Healer":     RoleHealer,
		"Armsman":    RoleTank,
		"Hero":       RoleTank,
		"Warrior":    RoleTank,
		"Wizard":     RoleCaster,
		"Eldritch":   RoleCaster,
		"Runemaster": RoleCaster,
		"Scout":      RoleRanged,
		"Ranger":     RoleRanged,
		"Hunter":     RoleRanged,
	}
)

// RoleForClassName maps a class name to its role; unknown classes fight in melee.
func RoleForClassName(name string) Role {
	if role, ok := classRoles[name]; ok {
		return role
	}
	return RoleMelee
}

// ClassByID resolves a class id. Ids outside [MinClassID, MaxClassID] are
// rejected; ids inside the range without a dedicated class become Fighters.
func ClassByID(id uint8) (Class, error) {
	if id < MinClassID || id > MaxClassID {
		return Class{}, errors.Wrapf(errors.ErrInvalidRole, "class id %d out of range [%d, %d]", id, MinClassID, MaxClassID)
	}

	name, ok := classNames[id]
	if !ok {
		name = defaultClassName
	}
	return Class{
		ID:   id,
		Name: name,
		Role: RoleForClassName(name),
	}, nil
}

func validateRaceAndGender(raceID, genderID uint8) error {
	if raceID < MinRaceID || raceID > MaxRaceID {
		return errors.Wrapf(errors.ErrInvalidArgument, "race id %d out of range [%d, %d]", raceID, MinRaceID, MaxRaceID)
	}
	if genderID > MaxGenderID {
		return errors.Wrapf(errors.ErrInvalidArgument, "gender id %d out of range [0, %d]", genderID, MaxGenderID)
	}
	return nil
}
