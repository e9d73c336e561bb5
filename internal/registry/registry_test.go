package registry

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/parser"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return New(st, zap.NewNop())
}

func stationRow(area, station string) *parser.InterpretedRow {
	values := map[parser.Role]string{}
	if area != "" {
		values[parser.RoleArea] = area
	}
	if station != "" {
		values[parser.RoleStation] = station
	}
	return &parser.InterpretedRow{
		SheetName: "Stations",
		RowIndex:  1,
		Values:    values,
		Summary:   "Station " + station + " | Area " + area,
	}
}

func auditCount(t *testing.T, r *Registry) int {
	t.Helper()
	n, err := r.Store().CountAuditEntries()
	if err != nil {
		t.Fatalf("count audit entries: %v", err)
	}
	return n
}
