package registry

import (
	"regexp"
	"strings"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/parser"
)

// Sentinel key segments for partially-known locations.
const (
	GlobalArea = "__GLOBAL__"
	NoStation  = "__NO_STATION__"
)

var (
	keyWhitespaceRe = regexp.MustCompile(`\s+`)
	digitRunRe      = regexp.MustCompile(`\d+`)
	stationPrefixRe = regexp.MustCompile(`(?i)^(STATION|OP|ST)[\s_-]*`)
)

// NormalizeArea upper-cases an area name and collapses whitespace.
func NormalizeArea(area string) string {
	s := strings.TrimSpace(area)
	if s == "" {
		return ""
	}
	s = keyWhitespaceRe.ReplaceAllString(s, " ")
	return strings.ToUpper(s)
}

// NormalizeStationCode canonicalizes a raw station code: known
// prefixes ("STATION", "OP", "ST") are stripped, leading zeros are
// removed from every embedded digit run, and the result is
// upper-cased. "OP-020" becomes "20".
func NormalizeStationCode(station string) string {
	s := strings.TrimSpace(station)
	if s == "" {
		return ""
	}
	s = stationPrefixRe.ReplaceAllString(s, "")
	s = digitRunRe.ReplaceAllStringFunc(s, func(run string) string {
		trimmed := strings.TrimLeft(run, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	})
	s = keyWhitespaceRe.ReplaceAllString(s, " ")
	return strings.ToUpper(strings.TrimSpace(s))
}

// BuildStationID composes the canonical station key. Deterministic and
// idempotent: the same inputs always produce the same key.
//
//	both known    → AREA|STATION
//	station only  → __GLOBAL__|STATION
//	area only     → AREA|__NO_STATION__
//	neither       → "" (the row carries no resolvable location)
func BuildStationID(area, station string) string {
	a := NormalizeArea(area)
	s := NormalizeStationCode(station)

	switch {
	case a != "" && s != "":
		return a + "|" + s
	case s != "":
		return GlobalArea + "|" + s
	case a != "":
		return a + "|" + NoStation
	default:
		return ""
	}
}

// NormalizeIdentifier canonicalizes a tool/robot identifier the same
// way station codes are treated, minus the prefix stripping.
func NormalizeIdentifier(id string) string {
	s := strings.TrimSpace(id)
	if s == "" {
		return ""
	}
	s = digitRunRe.ReplaceAllStringFunc(s, func(run string) string {
		trimmed := strings.TrimLeft(run, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	})
	s = keyWhitespaceRe.ReplaceAllString(s, " ")
	return strings.ToUpper(s)
}

// identifierRoles lists, per entity type, the roles tried in order for
// the identity segment of the key.
var identifierRoles = map[model.EntityType][]parser.Role{
	model.EntityRobot: {parser.RoleRobotID},
	model.EntityTool:  {parser.RoleGunID, parser.RoleToolID, parser.RoleDeviceID},
}

// KeyForRow derives the canonical key of one interpreted row for one
// entity type. Stations key on location alone; robots and tools append
// their normalized identifier to the station key. An empty result
// means the row cannot be resolved for that type.
func KeyForRow(t model.EntityType, row *parser.InterpretedRow) string {
	stationKey := BuildStationID(row.Value(parser.RoleArea), row.Value(parser.RoleStation))

	if t == model.EntityStation {
		return stationKey
	}

	var id string
	for _, role := range identifierRoles[t] {
		if v := NormalizeIdentifier(row.Value(role)); v != "" {
			id = v
			break
		}
	}
	if id == "" {
		return ""
	}
	if stationKey == "" {
		stationKey = GlobalArea + "|" + NoStation
	}
	return stationKey + "|" + id
}
