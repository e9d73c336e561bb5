package registry

import (
	"testing"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/parser"
)

func TestResolveRow_NewThenMatched(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	row := stationRow("Underbody", "OP-020")

	res, err := reg.ResolveRow("run-1", model.EntityStation, row)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != ResolutionNew || res.Key != "UNDERBODY|20" || res.UID != "" {
		t.Fatalf("first resolution = %+v, want new/UNDERBODY|20 without uid", res)
	}

	// "new" must not have created anything.
	entities, err := reg.Store().ListActiveEntities(model.EntityStation)
	if err != nil {
		t.Fatalf("list entities: %v", err)
	}
	if len(entities) != 0 {
		t.Fatalf("resolution created %d entities", len(entities))
	}

	entity, err := reg.CreateEntityForRow("run-1", model.EntityStation, res.Key, row, "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err = reg.ResolveRow("run-2", model.EntityStation, row)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if res.Status != ResolutionMatched || res.UID != entity.UID {
		t.Fatalf("second resolution = %+v, want matched with uid %s", res, entity.UID)
	}

	// The later run is now the one that last observed the entity.
	reloaded, err := reg.Store().GetEntity(entity.UID)
	if err != nil {
		t.Fatalf("reload entity: %v", err)
	}
	if reloaded.LastSeen != "run-2" {
		t.Fatalf("lastSeen = %q, want run-2", reloaded.LastSeen)
	}
}

func TestResolveRow_TypoQueuesForReview(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	entity, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", nil, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := reg.ResolveRow("run-2", model.EntityStation, stationRow("Underbdy", "OP-020"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != ResolutionAmbiguous {
		t.Fatalf("status = %s, want ambiguous", res.Status)
	}
	if res.UID != "" {
		t.Fatalf("ambiguous resolution assigned uid %s; candidates must never auto-link", res.UID)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].UID != entity.UID {
		t.Fatalf("candidates = %+v, want the existing station", res.Candidates)
	}
	if s := res.Candidates[0].Score; s < 0.9 || s >= 1.0 {
		t.Fatalf("candidate score = %.3f, want high but below 1.0", s)
	}
	if res.AmbiguousID == 0 {
		t.Fatalf("no review item recorded")
	}

	item, err := reg.Item(res.AmbiguousID)
	if err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.State != model.AmbiguousPending || item.Key != "UNDERBDY|20" {
		t.Fatalf("queued item = %+v", item)
	}

	// Still only the original entity.
	entities, _ := reg.Store().ListActiveEntities(model.EntityStation)
	if len(entities) != 1 {
		t.Fatalf("entity count = %d, want 1", len(entities))
	}
}

func TestResolveRow_UnrelatedKeyIsNew(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	if _, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", nil, "run-1", "import", "importer"); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := reg.ResolveRow("run-1", model.EntityStation, stationRow("Rearfloor", "OP-910"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != ResolutionNew {
		t.Fatalf("status = %s (candidates %+v), want new", res.Status, res.Candidates)
	}
}

func TestResolveRow_AliasRedirects(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	entity, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", nil, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reg.AddAliasRule(model.EntityStation, "UNDERBDY|20", entity.UID, "known misspelling", "alice", false); err != nil {
		t.Fatalf("add alias: %v", err)
	}

	res, err := reg.ResolveRow("run-2", model.EntityStation, stationRow("Underbdy", "OP-020"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != ResolutionAlias || res.UID != entity.UID {
		t.Fatalf("resolution = %+v, want alias to %s", res, entity.UID)
	}
}

func TestResolveRow_SkippedWithoutKey(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)

	res, err := reg.ResolveRow("run-1", model.EntityStation, &parser.InterpretedRow{Values: map[parser.Role]string{}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != ResolutionSkipped {
		t.Fatalf("status = %s, want skipped", res.Status)
	}

	// A robot row without an identifier cannot be keyed either.
	res, err = reg.ResolveRow("run-1", model.EntityRobot, stationRow("Underbody", "OP-020"))
	if err != nil {
		t.Fatalf("resolve robot: %v", err)
	}
	if res.Status != ResolutionSkipped {
		t.Fatalf("robot status = %s, want skipped", res.Status)
	}
}

func TestCreateEntityForRow_ReusesExistingKey(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	row := stationRow("Underbody", "OP-020")

	first, err := reg.CreateEntityForRow("run-1", model.EntityStation, "UNDERBODY|20", row, "import", "importer")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := auditCount(t, reg)

	second, err := reg.CreateEntityForRow("run-1", model.EntityStation, "UNDERBODY|20", row, "import", "importer")
	if err != nil {
		t.Fatalf("create again: %v", err)
	}
	if second.UID != first.UID {
		t.Fatalf("duplicate create minted a second uid: %s vs %s", second.UID, first.UID)
	}
	if got := auditCount(t, reg); got != before {
		t.Fatalf("idempotent create wrote %d extra audit entries", got-before)
	}
}
