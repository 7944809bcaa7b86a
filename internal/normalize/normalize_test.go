package normalize

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/record"
)

func testNormalizer() *Normalizer {
	n := New(config.DefaultRules())
	n.Resolver().Now = func() time.Time { return fixedNow }
	return n
}

func TestNormalizer_Normalize(t *testing.T) {
	n := testNormalizer()

	raw := record.RawEvent{
		TitleRaw:   "[GRATIS] Lomba Esai 2025/2025",
		PriceText:  "Rp 50.000 - 25.000",
		DateText:   "10 Jan - 20 Feb 2025",
		URL:        "https://www.infolombait.com/lomba-esai",
		SourceName: "infolombait.com",
		Description: "Lomba esai tingkat nasional.\n" +
			"Daftar di https://bit.ly/esai-nasional oleh @komunitas.literasi",
	}

	got, err := n.Normalize(raw, testTaxonomy())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if got.Title != "Lomba Esai 2025" {
		t.Errorf("Title = %q, want %q", got.Title, "Lomba Esai 2025")
	}
	if got.Price.Min == nil || got.Price.Max == nil || *got.Price.Min != 25000 || *got.Price.Max != 50000 {
		t.Errorf("Price = {%v, %v}, want {25000, 50000}", got.Price.Min, got.Price.Max)
	}
	assertDate(t, "EventStart", got.Dates.EventStart, date(2025, time.January, 10))
	assertDate(t, "EventEnd", got.Dates.EventEnd, date(2025, time.February, 20))
	assertDate(t, "Deadline", got.Dates.Deadline, date(2025, time.February, 20))

	if got.RegistrationURL != "https://bit.ly/esai-nasional" {
		t.Errorf("RegistrationURL = %q, want the shortener link", got.RegistrationURL)
	}
	if got.Organizer != "Komunitas Literasi" {
		t.Errorf("Organizer = %q, want %q", got.Organizer, "Komunitas Literasi")
	}
	if !reflect.DeepEqual(got.CategoryIDs, []string{"c2"}) {
		t.Errorf("CategoryIDs = %v, want [c2]", got.CategoryIDs)
	}
	if got.StableKey == "" {
		t.Error("StableKey is empty")
	}
}

func TestNormalizer_Normalize_NoTitle(t *testing.T) {
	n := testNormalizer()

	raw := record.RawEvent{
		Description: "We are hiring! Link di bio",
		PriceText:   "gratis",
	}

	got, err := n.Normalize(raw, testTaxonomy())
	if !errors.Is(err, ErrNoTitle) {
		t.Fatalf("Normalize() error = %v, want ErrNoTitle", err)
	}
	// The record is still returned so callers can log what was rejected.
	if !got.Price.Free() {
		t.Error("Price not parsed on invalid record")
	}
}

func TestNormalizer_Normalize_TitleFromCaption(t *testing.T) {
	n := testNormalizer()

	raw := record.RawEvent{
		Description: "Halo!\n" +
			"Kompetisi Desain Poster Kesehatan Mental\n" +
			"Daftar: https://bit.ly/poster2026",
		DateText: "20 Feb 2026",
	}

	got, err := n.Normalize(raw, testTaxonomy())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Title != "Kompetisi Desain Poster Kesehatan Mental" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestNormalizer_Normalize_CollectorStartAsFallbackDeadline(t *testing.T) {
	n := testNormalizer()

	posted := time.Date(2026, time.March, 3, 14, 30, 0, 0, time.UTC)
	raw := record.RawEvent{
		TitleRaw:   "Webinar Karir Data",
		DateText:   "segera",
		EventStart: &posted,
	}

	got, err := n.Normalize(raw, testTaxonomy())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	// No dates in text, so the collector-supplied start becomes both the
	// start and the fallback deadline, truncated to midnight UTC.
	want := date(2026, time.March, 3)
	assertDate(t, "Deadline", got.Dates.Deadline, want)
	assertDate(t, "EventStart", got.Dates.EventStart, want)
	assertDate(t, "EventEnd", got.Dates.EventEnd, want)
}

func TestNormalizer_Normalize_TextDatesBeatCollectorDates(t *testing.T) {
	n := testNormalizer()

	posted := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	raw := record.RawEvent{
		TitleRaw:   "Lomba Fotografi",
		DateText:   "10 Jan - 20 Feb 2026",
		EventStart: &posted,
	}

	got, err := n.Normalize(raw, testTaxonomy())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	assertDate(t, "EventStart", got.Dates.EventStart, date(2026, time.January, 10))
}

func TestNormalizer_Normalize_RepairsInvertedDates(t *testing.T) {
	n := testNormalizer()

	raw := record.RawEvent{
		TitleRaw: "Olimpiade Matematika",
		DateText: "pendaftaran ditutup 10 Januari 2026, acara berlangsung 15 Februari 2026",
	}

	got, err := n.Normalize(raw, testTaxonomy())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	// Clause tagging yields deadline=Jan 10, start=Feb 15; the repair step
	// swaps the mislabeled pair so the deadline never precedes the start.
	assertDate(t, "Deadline", got.Dates.Deadline, date(2026, time.February, 15))
	assertDate(t, "EventStart", got.Dates.EventStart, date(2026, time.January, 10))

	if got.Dates.EventStart != nil && got.Dates.EventEnd != nil &&
		got.Dates.EventEnd.Before(*got.Dates.EventStart) {
		t.Error("EventEnd precedes EventStart after repair")
	}
}

func TestNormalizer_Normalize_ClassificationRoundTrip(t *testing.T) {
	n := testNormalizer()

	raw := record.RawEvent{
		TitleRaw:    "Lomba UI/UX Design Nasional",
		Description: "Desain aplikasi mobile untuk kesehatan",
	}

	got, err := n.Normalize(raw, testTaxonomy())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	classifier := NewClassifier(config.DefaultRules().CategoryKeywords)
	again := classifier.Classify(got.Title, got.Description, testTaxonomy())
	if !reflect.DeepEqual(got.CategoryIDs, again) {
		t.Errorf("re-classifying the canonical record changed the set: %v vs %v", got.CategoryIDs, again)
	}
}
