package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
)

func queueTypoItem(t *testing.T, reg *Registry, runID string) (*Resolution, *model.CanonicalEntity) {
	t.Helper()

	entity, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", nil, "run-0", "import", "importer")
	if err != nil {
		t.Fatalf("create entity: %v", err)
	}
	res, err := reg.ResolveRow(runID, model.EntityStation, stationRow("Underbdy", "OP-020"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Status != ResolutionAmbiguous {
		t.Fatalf("setup expected an ambiguous row, got %s", res.Status)
	}
	return res, entity
}

func TestLinkAmbiguous(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	res, entity := queueTypoItem(t, reg, "run-1")

	done, err := reg.RunComplete("run-1")
	if err != nil {
		t.Fatalf("run complete: %v", err)
	}
	if done {
		t.Fatalf("run reported complete with a pending item")
	}

	before := auditCount(t, reg)
	item, err := reg.LinkAmbiguous(res.AmbiguousID, entity.UID, "same station, misspelled area", "alice")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if item.State != model.AmbiguousLinked || item.ResolvedUID != entity.UID {
		t.Fatalf("item after link = %+v", item)
	}
	if got := auditCount(t, reg); got != before+1 {
		t.Fatalf("link wrote %d audit entries, want 1", got-before)
	}

	// The decision persists: the same key now resolves by alias.
	again, err := reg.ResolveRow("run-2", model.EntityStation, stationRow("Underbdy", "OP-020"))
	if err != nil {
		t.Fatalf("resolve after link: %v", err)
	}
	if again.Status != ResolutionAlias || again.UID != entity.UID {
		t.Fatalf("post-link resolution = %+v", again)
	}

	done, err = reg.RunComplete("run-1")
	if err != nil {
		t.Fatalf("run complete: %v", err)
	}
	if !done {
		t.Fatalf("run still incomplete after resolving its only item")
	}

	// Terminal states reject further decisions.
	if _, err := reg.LinkAmbiguous(res.AmbiguousID, entity.UID, "again", "bob"); !errors.Is(err, ErrItemResolved) {
		t.Fatalf("double link err = %v, want ErrItemResolved", err)
	}
	if _, err := reg.CreateFromAmbiguous(res.AmbiguousID, "as new", "bob"); !errors.Is(err, ErrItemResolved) {
		t.Fatalf("create after link err = %v, want ErrItemResolved", err)
	}
}

func TestCreateFromAmbiguous(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	res, existing := queueTypoItem(t, reg, "run-1")

	before := auditCount(t, reg)
	created, err := reg.CreateFromAmbiguous(res.AmbiguousID, "genuinely a different station", "alice")
	if err != nil {
		t.Fatalf("create from ambiguous: %v", err)
	}
	if created.UID == existing.UID {
		t.Fatalf("new entity reused the candidate's uid")
	}
	if created.Key != "UNDERBDY|20" {
		t.Fatalf("new entity key = %q", created.Key)
	}
	if got := auditCount(t, reg); got != before+1 {
		t.Fatalf("create wrote %d audit entries, want 1", got-before)
	}

	item, err := reg.Item(res.AmbiguousID)
	if err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.State != model.AmbiguousCreated || item.ResolvedUID != created.UID {
		t.Fatalf("item after create = %+v", item)
	}

	// The key now matches exactly.
	again, err := reg.ResolveRow("run-2", model.EntityStation, stationRow("Underbdy", "OP-020"))
	if err != nil {
		t.Fatalf("resolve after create: %v", err)
	}
	if again.Status != ResolutionMatched || again.UID != created.UID {
		t.Fatalf("post-create resolution = %+v", again)
	}
}

func TestCreateFromAmbiguous_KeyAlreadyClaimed(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)

	// The same misspelled row arrives in two runs, queueing two pending
	// items that share one key.
	first, _ := queueTypoItem(t, reg, "run-1")
	second, err := reg.ResolveRow("run-2", model.EntityStation, stationRow("Underbdy", "OP-020"))
	if err != nil {
		t.Fatalf("resolve run-2: %v", err)
	}
	if second.Status != ResolutionAmbiguous || second.AmbiguousID == first.AmbiguousID {
		t.Fatalf("run-2 resolution = %+v", second)
	}

	created, err := reg.CreateFromAmbiguous(first.AmbiguousID, "new station", "alice")
	if err != nil {
		t.Fatalf("create from first item: %v", err)
	}

	// The second item may not mint a second owner for the key.
	if _, err := reg.CreateFromAmbiguous(second.AmbiguousID, "new station", "bob"); !errors.Is(err, ErrKeyClaimed) {
		t.Fatalf("second create err = %v, want ErrKeyClaimed", err)
	}

	item, err := reg.Item(second.AmbiguousID)
	if err != nil {
		t.Fatalf("load second item: %v", err)
	}
	if item.State != model.AmbiguousPending {
		t.Fatalf("rejected create changed item state to %s", item.State)
	}

	// Linking the second item to the minted entity is the way out.
	if _, err := reg.LinkAmbiguous(second.AmbiguousID, created.UID, "same station", "bob"); err != nil {
		t.Fatalf("link second item: %v", err)
	}

	entities, err := reg.Store().ListActiveEntities(model.EntityStation)
	if err != nil {
		t.Fatalf("list entities: %v", err)
	}
	owners := 0
	for _, e := range entities {
		if e.Key == created.Key {
			owners++
		}
	}
	if owners != 1 {
		t.Fatalf("%d active entities own key %q, want 1", owners, created.Key)
	}
}

func TestPendingItems(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	res, entity := queueTypoItem(t, reg, "run-1")

	pending, err := reg.PendingItems("run-1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != res.AmbiguousID {
		t.Fatalf("pending items = %+v", pending)
	}

	if _, err := reg.LinkAmbiguous(res.AmbiguousID, entity.UID, "link", "alice"); err != nil {
		t.Fatalf("link: %v", err)
	}
	pending, err = reg.PendingItems("run-1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("items left pending after link: %+v", pending)
	}
}

func TestStaleEntities(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	st := reg.Store()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"run-1", "run-2"} {
		run := &model.ImportRun{
			ID:        id,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Status:    "completed",
		}
		if err := st.InsertRun(run); err != nil {
			t.Fatalf("insert run %s: %v", id, err)
		}
	}

	old, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|10", nil, "run-1", "import", "importer")
	if err != nil {
		t.Fatalf("create old: %v", err)
	}
	fresh, err := reg.CreateEntity(model.EntityStation, "UNDERBODY|20", nil, "run-2", "import", "importer")
	if err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	stale, err := reg.StaleEntities(1)
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if len(stale) != 1 || stale[0].UID != old.UID {
		t.Fatalf("stale = %+v, want only the run-1 entity", stale)
	}

	n, err := reg.DeactivateStale(1, "not seen in latest run", "alice")
	if err != nil {
		t.Fatalf("deactivate stale: %v", err)
	}
	if n != 1 {
		t.Fatalf("deactivated %d, want 1", n)
	}

	reloaded, err := st.GetEntity(old.UID)
	if err != nil {
		t.Fatalf("reload old: %v", err)
	}
	if reloaded.Status != model.StatusInactive {
		t.Fatalf("old entity status = %s, want inactive", reloaded.Status)
	}
	reloaded, err = st.GetEntity(fresh.UID)
	if err != nil {
		t.Fatalf("reload fresh: %v", err)
	}
	if reloaded.Status != model.StatusActive {
		t.Fatalf("fresh entity status = %s, want active", reloaded.Status)
	}
}
