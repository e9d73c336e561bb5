package registry

import (
	"errors"
	"testing"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

// Every mutation must leave exactly one audit entry behind.
func TestMutations_ExactlyOneAuditEntryEach(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)

	entity, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", map[string]string{"AREA": "Underbody"}, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := auditCount(t, reg); got != 1 {
		t.Fatalf("after create: %d entries, want 1", got)
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"deactivate", func() error { return reg.Deactivate(entity.UID, "line removed", "alice") }},
		{"activate", func() error { return reg.Activate(entity.UID, "line rebuilt", "alice") }},
		{"override label", func() error { return reg.OverrideLabel(entity.UID, "AREA", "Underbody 2", "renamed", "alice") }},
		{"update attributes", func() error {
			return reg.UpdateAttributes(entity.UID, map[string]string{"PLANT": "Karawang", "AREA": "UB"}, "bulk edit", "alice")
		}},
		{"delete", func() error { return reg.DeleteEntity(entity.UID, "decommissioned", "alice") }},
	}

	expected := 1
	for _, step := range steps {
		if err := step.fn(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		expected++
		if got := auditCount(t, reg); got != expected {
			t.Fatalf("after %s: %d entries, want %d", step.name, got, expected)
		}
	}

	// The trail outlives the deleted entity.
	if _, err := reg.Store().GetEntity(entity.UID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("entity still present after delete: %v", err)
	}
	entries, err := reg.Store().QueryAudit(model.AuditFilter{EntityUID: entity.UID})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if len(entries) != expected {
		t.Fatalf("audit trail length = %d, want %d", len(entries), expected)
	}
}

func TestDeactivate_RecordsTransition(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	entity, err := reg.CreateEntity(model.EntityRobot, "UNDERBODY|20|R1", nil, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := reg.Deactivate(entity.UID, "robot scrapped", "bob"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	entries, err := reg.Store().QueryAudit(model.AuditFilter{
		EntityUID: entity.UID,
		Action:    model.ActionDeactivate,
	})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("deactivate entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.OldValue != string(model.StatusActive) || e.NewValue != string(model.StatusInactive) {
		t.Fatalf("transition %q -> %q, want active -> inactive", e.OldValue, e.NewValue)
	}
	if e.Reason != "robot scrapped" || e.Actor != "bob" {
		t.Fatalf("entry attribution: %+v", e)
	}

	reloaded, err := reg.Store().GetEntity(entity.UID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != model.StatusInactive {
		t.Fatalf("status = %s, want inactive", reloaded.Status)
	}
}

func TestAddAliasRule_ConflictAndSupersede(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	e1, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", nil, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create e1: %v", err)
	}
	e2, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|21", nil, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create e2: %v", err)
	}

	if _, err := reg.AddAliasRule(model.EntityStation, "UNDERBDY|20", e1.UID, "typo", "alice", false); err != nil {
		t.Fatalf("add alias: %v", err)
	}
	before := auditCount(t, reg)

	// Re-adding the identical redirection is a silent confirm.
	rule, err := reg.AddAliasRule(model.EntityStation, "UNDERBDY|20", e1.UID, "typo again", "bob", false)
	if err != nil {
		t.Fatalf("confirm alias: %v", err)
	}
	if rule.TargetUID != e1.UID {
		t.Fatalf("confirm returned target %s", rule.TargetUID)
	}
	if got := auditCount(t, reg); got != before {
		t.Fatalf("no-op confirm wrote audit entries: %d -> %d", before, got)
	}

	// Pointing the same key elsewhere needs an explicit supersede.
	if _, err := reg.AddAliasRule(model.EntityStation, "UNDERBDY|20", e2.UID, "rewire", "alice", false); !errors.Is(err, ErrAliasConflict) {
		t.Fatalf("conflicting alias err = %v, want ErrAliasConflict", err)
	}
	if _, err := reg.AddAliasRule(model.EntityStation, "UNDERBDY|20", e2.UID, "rewire", "alice", true); err != nil {
		t.Fatalf("supersede: %v", err)
	}

	active, err := reg.Store().GetActiveAlias(model.EntityStation, "UNDERBDY|20")
	if err != nil {
		t.Fatalf("get active alias: %v", err)
	}
	if active.TargetUID != e2.UID {
		t.Fatalf("active alias targets %s, want %s", active.TargetUID, e2.UID)
	}
}

func TestAddAliasRule_TargetMustExist(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	if _, err := reg.AddAliasRule(model.EntityStation, "UNDERBDY|20", "no-such-uid", "typo", "alice", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("alias to missing entity err = %v, want ErrNotFound", err)
	}
}

func TestUpdateAttributes_EmptyChangeIsNoOp(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	entity, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", nil, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := auditCount(t, reg)

	if err := reg.UpdateAttributes(entity.UID, nil, "nothing", "alice"); err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if got := auditCount(t, reg); got != before {
		t.Fatalf("empty update wrote audit entries")
	}
}

func TestOverrideLabel_KeepsOtherLabels(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	entity, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20",
		map[string]string{"AREA": "Underbody", "STATION": "OP-020"}, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := reg.OverrideLabel(entity.UID, "AREA", "Underbody Left", "split line", "alice"); err != nil {
		t.Fatalf("override: %v", err)
	}

	reloaded, err := reg.Store().GetEntity(entity.UID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Labels["AREA"] != "Underbody Left" || reloaded.Labels["STATION"] != "OP-020" {
		t.Fatalf("labels after override: %+v", reloaded.Labels)
	}
}
