package registry

import (
	"testing"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/parser"
)

func TestNormalizeStationCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"OP-020", "20"},
		{"op 020", "20"},
		{"ST_010", "10"},
		{"STATION 0100", "100"},
		{"020", "20"},
		{"OP-000", "0"},
		{"20", "20"},
		{"20B", "20B"},
	}
	for _, c := range cases {
		if got := NormalizeStationCode(c.in); got != c.want {
			t.Fatalf("NormalizeStationCode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildStationID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		area    string
		station string
		want    string
	}{
		{"Underbody ", "OP-020", "UNDERBODY|20"},
		{"", "OP-020", "__GLOBAL__|20"},
		{"Rear  Floor", "", "REAR FLOOR|__NO_STATION__"},
		{"", "", ""},
		{"underbody", "station 0020", "UNDERBODY|20"},
	}
	for _, c := range cases {
		if got := BuildStationID(c.area, c.station); got != c.want {
			t.Fatalf("BuildStationID(%q, %q) = %q, want %q", c.area, c.station, got, c.want)
		}
	}

	// Same logical location must always yield the same key.
	a := BuildStationID("Underbody", "OP-020")
	b := BuildStationID(" UNDERBODY ", "020")
	if a != b {
		t.Fatalf("equivalent locations produced %q and %q", a, b)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"r-010", "R-10"},
		{"G 007", "G 7"},
		{"X000", "X0"},
	}
	for _, c := range cases {
		if got := NormalizeIdentifier(c.in); got != c.want {
			t.Fatalf("NormalizeIdentifier(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestKeyForRow(t *testing.T) {
	t.Parallel()

	row := &parser.InterpretedRow{Values: map[parser.Role]string{
		parser.RoleArea:    "Underbody",
		parser.RoleStation: "OP-020",
		parser.RoleRobotID: "R-010",
		parser.RoleGunID:   "G05",
	}}

	if got := KeyForRow(model.EntityStation, row); got != "UNDERBODY|20" {
		t.Fatalf("station key = %q", got)
	}
	if got := KeyForRow(model.EntityRobot, row); got != "UNDERBODY|20|R-10" {
		t.Fatalf("robot key = %q", got)
	}
	// Tools prefer the gun identifier over generic tool/device columns.
	if got := KeyForRow(model.EntityTool, row); got != "UNDERBODY|20|G5" {
		t.Fatalf("tool key = %q", got)
	}
}

func TestKeyForRow_MissingParts(t *testing.T) {
	t.Parallel()

	// No identifier: robots and tools cannot be keyed at all.
	noID := &parser.InterpretedRow{Values: map[parser.Role]string{
		parser.RoleArea:    "Underbody",
		parser.RoleStation: "OP-020",
	}}
	if got := KeyForRow(model.EntityRobot, noID); got != "" {
		t.Fatalf("robot key without identifier = %q, want empty", got)
	}

	// No location: identifiers fall back to the sentinel location.
	noLoc := &parser.InterpretedRow{Values: map[parser.Role]string{
		parser.RoleRobotID: "R1",
	}}
	if got := KeyForRow(model.EntityRobot, noLoc); got != "__GLOBAL__|__NO_STATION__|R1" {
		t.Fatalf("robot key without location = %q", got)
	}

	// Nothing at all: station rows carry no resolvable key.
	empty := &parser.InterpretedRow{Values: map[parser.Role]string{}}
	if got := KeyForRow(model.EntityStation, empty); got != "" {
		t.Fatalf("empty row key = %q, want empty", got)
	}
}
