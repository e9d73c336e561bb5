package parser

import (
	"reflect"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Station", "station"},
		{"  Gun_Force  ", "gun force"},
		{"ROBOT-TYPE", "robot type"},
		{"Sim\tStatus", "sim status"},
		{"Refresment   OK", "refresment ok"},
		{"Line\nName", "line name"},
	}
	for _, c := range cases {
		if got := NormalizeHeader(c.in); got != c.want {
			t.Fatalf("NormalizeHeader(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTokenizeHeader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Station No", []string{"station", "no"}},
		{"robotId", []string{"robot", "id"}},
		{"OLPStatus", []string{"olp", "status"}},
		{"Station010", []string{"station", "010"}},
		{"Gun_Force(N)", []string{"gun", "force", "n"}},
		{"cycle.time", []string{"cycle", "time"}},
	}
	for _, c := range cases {
		if got := TokenizeHeader(c.in); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("TokenizeHeader(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
