package tagger

import (
	"reflect"
	"testing"

	"ai-image-decoder/internal/model"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			name:   "plain commas",
			prompt: "cat, dog ,  bird",
			want:   []string{"cat", "dog", "bird"},
		},
		{
			name:   "weighted group is split after unwrapping",
			prompt: "cat, (red hair, blue eyes:1.2), sky",
			want:   []string{"cat", "red hair", "blue eyes", "sky"},
		},
		{
			name:   "newlines and BREAK",
			prompt: "cat\ndog BREAK bird,BREAK,fish",
			want:   []string{"cat", "dog", "bird", "fish"},
		},
		{
			name:   "extra network kept whole",
			prompt: "<lora:fox, style:0.8>, fox",
			want:   []string{"<lora:fox, style:0.8>", "fox"},
		},
		{
			name:   "escaped parens do not nest",
			prompt: `artist \(style\), cat`,
			want:   []string{`artist \(style\)`, "cat"},
		},
		{
			name:   "empty",
			prompt: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segments(tt.prompt)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Segments(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"((masterpiece))", "masterpiece"},
		{"(red hair:1.2)", "red hair"},
		{"[best_quality]", "best_quality"},
		{"{{cat}}", "cat"},
		{"(dog:.8)", "dog"},
		{"(a) and (b)", "(a) and (b)"},
		{`artist \(style\)`, "artist (style)"},
		{"cat:1.5", "cat"},
	}
	for _, tt := range tests {
		if got := clean(tt.in); got != tt.want {
			t.Errorf("clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"8K", "8k"},
		{"Best_Quality", "best quality"},
		{"  Golden   Hour ", "golden hour"},
		{"STRASSE", "strasse"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func find(links []model.TagLink, name string, cat model.TagCategory) (model.TagLink, bool) {
	for _, l := range links {
		if l.Name == name && l.Category == cat {
			return l, true
		}
	}
	return model.TagLink{}, false
}

func TestExtract(t *testing.T) {
	t.Parallel()

	links := Extract(
		"masterpiece, (8K:1.2), photorealistic, golden hour, a lighthouse on a cliff, <lora:SeaStyle:0.7>, x, "+
			"an extremely long descriptive segment that has far too many words to be a tag",
		"blurry, lowres, (worst quality:1.4)",
		map[string]any{"Model": "DreamShaper_8", "Steps": int64(20)},
	)

	tests := []struct {
		name string
		cat  model.TagCategory
		conf float64
		prov model.Provenance
	}{
		{"masterpiece", model.CategoryQuality, 1.0, model.ProvenancePrompt},
		{"8k", model.CategoryQuality, 1.0, model.ProvenancePrompt},
		{"photorealistic", model.CategoryStyle, 1.0, model.ProvenancePrompt},
		{"golden hour", model.CategoryTechnique, 1.0, model.ProvenancePrompt},
		{"a lighthouse on a cliff", model.CategorySubject, 0.5, model.ProvenancePrompt},
		{"seastyle", model.CategoryModel, 1.0, model.ProvenancePrompt},
		{"blurry", model.CategoryNegative, 1.0, model.ProvenancePrompt},
		{"lowres", model.CategoryNegative, 1.0, model.ProvenancePrompt},
		{"worst quality", model.CategoryNegative, 1.0, model.ProvenancePrompt},
		{"dreamshaper_8", model.CategoryModel, 1.0, model.ProvenanceMetadata},
	}
	for _, tt := range tests {
		l, ok := find(links, tt.name, tt.cat)
		if !ok {
			t.Errorf("missing tag %q/%s in %+v", tt.name, tt.cat, links)
			continue
		}
		if l.Confidence != tt.conf || l.Provenance != tt.prov {
			t.Errorf("tag %q = %+v, want confidence %v provenance %v", tt.name, l, tt.conf, tt.prov)
		}
	}

	if _, ok := find(links, "x", model.CategorySubject); ok {
		t.Error("too-short segment became a tag")
	}
	if len(links) != len(tests) {
		t.Errorf("got %d links, want %d: %+v", len(links), len(tests), links)
	}
}

func TestExtractDeduplicatesPerImage(t *testing.T) {
	t.Parallel()

	links := Extract("8k, 8K, (8k:1.1), Cat, cat", "", nil)
	if len(links) != 2 {
		t.Fatalf("want 2 links, got %+v", links)
	}
	if links[0].Name != "8k" || links[1].Name != "cat" {
		t.Errorf("links = %+v", links)
	}
}

func TestExtractSameNameDifferentCategories(t *testing.T) {
	t.Parallel()

	links := Extract("lowres", "lowres", nil)
	if _, ok := find(links, "lowres", model.CategoryQuality); !ok {
		t.Error("missing quality tag")
	}
	if _, ok := find(links, "lowres", model.CategoryNegative); !ok {
		t.Error("missing negative tag")
	}
}

func TestExtractComfyLoraSetting(t *testing.T) {
	t.Parallel()

	links := Extract("", "", map[string]any{"Lora": "a.safetensors, b.safetensors"})
	if len(links) != 2 {
		t.Fatalf("links = %+v", links)
	}
	for _, l := range links {
		if l.Category != model.CategoryModel || l.Provenance != model.ProvenanceMetadata {
			t.Errorf("unexpected link %+v", l)
		}
	}
}
