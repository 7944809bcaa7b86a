package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/lombahub/lomba-events/internal/record"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testEvent(key string) record.CanonicalEvent {
	min, max := 0, 25000
	deadline := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	return record.CanonicalEvent{
		StableKey:       key,
		Title:           "Lomba Esai Nasional",
		Description:     "Lomba esai tingkat nasional.",
		URL:             "https://www.infolombait.com/lomba-esai",
		RegistrationURL: "https://bit.ly/esai",
		SourceName:      "infolombait.com",
		Price:           record.PriceRange{Min: &min, Max: &max},
		Dates: record.DateTriple{
			Deadline:   &deadline,
			EventStart: &start,
			EventEnd:   &start,
		},
		FirstSeen: time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestGetOrCreateSource(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id1, err := store.GetOrCreateSource(ctx, "infolombait.com", "https://www.infolombait.com/")
	if err != nil {
		t.Fatalf("GetOrCreateSource() error = %v", err)
	}
	if id1 == "" {
		t.Fatal("GetOrCreateSource() returned empty id")
	}

	id2, err := store.GetOrCreateSource(ctx, "infolombait.com", "https://www.infolombait.com/")
	if err != nil {
		t.Fatalf("GetOrCreateSource() second call error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("same source got two ids: %q and %q", id1, id2)
	}
}

func TestSeedCategoriesAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	taxonomy := record.Taxonomy{
		{ID: "c2", Slug: "writing", Name: "Writing"},
		{ID: "c1", Slug: "ui-ux-design", Name: "UI/UX Design"},
	}
	if err := store.SeedCategories(ctx, taxonomy); err != nil {
		t.Fatalf("SeedCategories() error = %v", err)
	}
	// Re-seeding the same slugs is a no-op.
	if err := store.SeedCategories(ctx, taxonomy); err != nil {
		t.Fatalf("SeedCategories() re-run error = %v", err)
	}

	got, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	want := record.Taxonomy{
		{ID: "c1", Slug: "ui-ux-design", Name: "UI/UX Design"},
		{ID: "c2", Slug: "writing", Name: "Writing"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}

func TestUpsertEvent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SeedCategories(ctx, record.Taxonomy{
		{ID: "c1", Slug: "ui-ux-design", Name: "UI/UX Design"},
		{ID: "c2", Slug: "writing", Name: "Writing"},
	}); err != nil {
		t.Fatal(err)
	}

	ev := testEvent("key-1")
	ev.CategoryIDs = []string{"c2"}
	id, err := store.UpsertEvent(ctx, ev)
	if err != nil {
		t.Fatalf("UpsertEvent() error = %v", err)
	}

	got, err := store.GetEvent(ctx, id)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if got.Title != ev.Title {
		t.Errorf("Title = %q, want %q", got.Title, ev.Title)
	}
	if got.Price.Min == nil || *got.Price.Min != 0 {
		t.Errorf("Price.Min = %v, want 0", got.Price.Min)
	}
	if got.Dates.Deadline == nil || !got.Dates.Deadline.Equal(*ev.Dates.Deadline) {
		t.Errorf("Deadline = %v, want %v", got.Dates.Deadline, ev.Dates.Deadline)
	}
	if !reflect.DeepEqual(got.CategoryIDs, []string{"c2"}) {
		t.Errorf("CategoryIDs = %v, want [c2]", got.CategoryIDs)
	}

	// Second upsert with the same stable key updates in place and
	// replaces the category links.
	ev.Title = "Lomba Esai Nasional 2026"
	ev.CategoryIDs = []string{"c1"}
	id2, err := store.UpsertEvent(ctx, ev)
	if err != nil {
		t.Fatalf("UpsertEvent() update error = %v", err)
	}
	if id2 != id {
		t.Errorf("upsert created a new row: id %q then %q", id, id2)
	}

	got, err = store.GetEvent(ctx, id)
	if err != nil {
		t.Fatalf("GetEvent() after update error = %v", err)
	}
	if got.Title != "Lomba Esai Nasional 2026" {
		t.Errorf("Title after update = %q", got.Title)
	}
	if !reflect.DeepEqual(got.CategoryIDs, []string{"c1"}) {
		t.Errorf("CategoryIDs after update = %v, want [c1]", got.CategoryIDs)
	}
	if !got.FirstSeen.Equal(testEvent("key-1").FirstSeen) {
		t.Errorf("FirstSeen changed on update: %v", got.FirstSeen)
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("ListEvents() returned %d events, want 1", len(events))
	}
}

func TestUpsertEvent_NilDates(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	ev := record.CanonicalEvent{
		StableKey: "key-nil",
		Title:     "Webinar Tanpa Deadline",
		FirstSeen: time.Now().UTC(),
	}
	id, err := store.UpsertEvent(ctx, ev)
	if err != nil {
		t.Fatalf("UpsertEvent() error = %v", err)
	}

	got, err := store.GetEvent(ctx, id)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if got.Dates.Deadline != nil || got.Price.Min != nil {
		t.Errorf("nullable fields came back non-nil: %+v", got)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	store := testStore(t)
	if _, err := store.GetEvent(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEvent() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	past := testEvent("key-past")
	expired := now.AddDate(0, 0, -10)
	past.Dates.Deadline = &expired

	future := testEvent("key-future")
	upcoming := now.AddDate(0, 0, 10)
	future.Dates.Deadline = &upcoming

	undated := testEvent("key-undated")
	undated.Dates = record.DateTriple{}

	for _, ev := range []record.CanonicalEvent{past, future, undated} {
		if _, err := store.UpsertEvent(ctx, ev); err != nil {
			t.Fatalf("UpsertEvent(%s) error = %v", ev.StableKey, err)
		}
	}

	deleted, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", deleted)
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListEvents() returned %d events, want 2", len(events))
	}
	// Dated events sort before undated ones.
	if events[0].StableKey != "key-future" {
		t.Errorf("first event = %q, want key-future", events[0].StableKey)
	}
	if events[1].StableKey != "key-undated" {
		t.Errorf("second event = %q, want key-undated", events[1].StableKey)
	}
}
