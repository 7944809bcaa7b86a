package normalize

import (
	"reflect"
	"testing"

	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/record"
)

func testTaxonomy() record.Taxonomy {
	return record.Taxonomy{
		{ID: "c1", Slug: "ui-ux-design", Name: "UI/UX Design"},
		{ID: "c2", Slug: "writing", Name: "Writing"},
		{ID: "c3", Slug: "business", Name: "Business"},
		{ID: "c4", Slug: "unknown-slug", Name: "No keywords configured"},
	}
}

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(config.DefaultRules().CategoryKeywords)

	tests := []struct {
		name        string
		title       string
		description string
		want        []string
	}{
		{
			name:  "UI UX keyword with slash matches whole word",
			title: "Lomba UI/UX Design Nasional",
			want:  []string{"c1"},
		},
		{
			name:  "Unrelated text yields empty set",
			title: "Turnamen Catur Antar Sekolah",
			want:  nil,
		},
		{
			name:        "Keyword in description counts",
			title:       "Kompetisi Nasional 2026",
			description: "Kirimkan karya tulis terbaikmu sebelum deadline",
			want:        []string{"c2"},
		},
		{
			name:        "Multiple categories in taxonomy order",
			title:       "Lomba Esai dan Business Plan Competition",
			description: "",
			want:        []string{"c2", "c3"},
		},
		{
			name:  "Slug without keyword table never matches",
			title: "unknown-slug unknown slug",
			want:  nil,
		},
		{
			name:  "Keyword inside a longer word does not match",
			title: "Pendaftaran essayist gathering",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.title, tt.description, testTaxonomy())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	classifier := NewClassifier(config.DefaultRules().CategoryKeywords)
	title := "Lomba UI/UX Design dan Karya Tulis Ilmiah"
	description := "Business plan opsional"

	first := classifier.Classify(title, description, testTaxonomy())
	for i := 0; i < 10; i++ {
		again := classifier.Classify(title, description, testTaxonomy())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Classify() not deterministic: %v then %v", first, again)
		}
	}
}
