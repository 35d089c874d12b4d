package eval

import "github.com/crystal-mush/softeval/pkg/gamedb"

// Genders as resolved from the SEX attribute.
const (
	genderNeuter = 1
	genderFemale = 2
	genderMale   = 3
	genderPlural = 4
)

var (
	subjective = [...]string{genderNeuter: "it", genderFemale: "she", genderMale: "he", genderPlural: "they"}
	objective  = [...]string{genderNeuter: "it", genderFemale: "her", genderMale: "him", genderPlural: "them"}
	possessive = [...]string{genderNeuter: "its", genderFemale: "her", genderMale: "his", genderPlural: "their"}
	absolute   = [...]string{genderNeuter: "its", genderFemale: "hers", genderMale: "his", genderPlural: "theirs"}
)

// gender reads the first letter of who's SEX attribute.
func (ctx *EvalContext) gender(who gamedb.DBRef) int {
	a, ok := ctx.World.ParentAttr(who, gamedb.AttrSex)
	if !ok || a.Value == "" {
		return genderNeuter
	}
	switch a.Value[0] {
	case 'P', 'p':
		return genderPlural
	case 'M', 'm':
		return genderMale
	case 'F', 'f', 'W', 'w':
		return genderFemale
	}
	return genderNeuter
}

func pronoun(code byte, gender int) string {
	if gender < genderNeuter || gender > genderPlural {
		gender = genderNeuter
	}
	switch code {
	case 's', 'S':
		return subjective[gender]
	case 'o', 'O':
		return objective[gender]
	case 'p', 'P':
		return possessive[gender]
	}
	return absolute[gender]
}
