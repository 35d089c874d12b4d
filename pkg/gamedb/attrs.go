package gamedb

import "strings"

// Well-known attribute numbers. Numbers match the classic server numbering
// so databases stay interchangeable.
const (
	AttrSex  = 7
	AttrDesc = 6
	AttrName = 43
	AttrVA   = 100 // VA..VZ are AttrVA+0 .. AttrVA+25
)

// UserAttrBase is the first number handed out for user-defined attributes.
const UserAttrBase = 256

// WellKnownAttrs lists the built-in attribute names the evaluator can address.
var WellKnownAttrs = map[int]string{
	1:   "OSUCC",
	2:   "OFAIL",
	3:   "FAIL",
	4:   "SUCC",
	5:   "PASS",
	6:   "DESC",
	7:   "SEX",
	8:   "ODROP",
	9:   "DROP",
	26:  "LISTEN",
	30:  "LAST",
	32:  "IDESC",
	43:  "NAME",
	44:  "COMMENT",
	100: "VA",
	101: "VB",
	102: "VC",
	103: "VD",
	104: "VE",
	105: "VF",
	106: "VG",
	107: "VH",
	108: "VI",
	109: "VJ",
	110: "VK",
	111: "VL",
	112: "VM",
	113: "VN",
	114: "VO",
	115: "VP",
	116: "VQ",
	117: "VR",
	118: "VS",
	119: "VT",
	120: "VU",
	121: "VV",
	122: "VW",
	123: "VX",
	124: "VY",
	125: "VZ",
}

var wellKnownByName = func() map[string]int {
	m := make(map[string]int, len(WellKnownAttrs))
	for num, name := range WellKnownAttrs {
		m[name] = num
	}
	return m
}()

// LookupWellKnown resolves a built-in attribute name, case-insensitively.
func LookupWellKnown(name string) (int, bool) {
	num, ok := wellKnownByName[strings.ToUpper(name)]
	return num, ok
}
