package catalog

import (
	"reflect"
	"testing"
)

func TestNormalizeLegacyFlat(t *testing.T) {
	raw := map[string]any{
		"id":                  "cube_stereo_2024_abc",
		"firm":                "Cube",
		"model":               "Stereo Hybrid 140",
		"year":                "2024",
		"price":               "31,900",
		"disc_price":          "27,500",
		"image_url":           "https://img.example/stereo.jpg",
		"gallery_images_urls": `["https://img.example/a.jpg","https://img.example/b.jpg"]`,
		"product_url":         "https://shop.example/stereo",
		"sub_category":        "full-suspension",
		"motor":               "Bosch Performance CX",
		"wh":                  "750",
		"fork_length":         "150",
		"frame":               "Carbon C:62",
		"rear_shock":          "",
		"battery":             nil,
	}

	p := Normalize(raw)

	if p.ID != "cube_stereo_2024_abc" {
		t.Errorf("expected id preserved, got %q", p.ID)
	}
	if p.Brand != "Cube" || p.Model != "Stereo Hybrid 140" {
		t.Errorf("unexpected brand/model: %q %q", p.Brand, p.Model)
	}
	if p.Year != 2024 {
		t.Errorf("expected year 2024, got %d", p.Year)
	}
	if p.Listing.Price != "27,500" || p.Listing.OriginalPrice != "31,900" {
		t.Errorf("unexpected listing prices: %+v", p.Listing)
	}
	if p.Listing.ProductURL != "https://shop.example/stereo" {
		t.Errorf("unexpected product url: %q", p.Listing.ProductURL)
	}

	wantImages := []string{
		"https://img.example/stereo.jpg",
		"https://img.example/a.jpg",
		"https://img.example/b.jpg",
	}
	if !reflect.DeepEqual(p.Images, wantImages) {
		t.Errorf("unexpected images: %v", p.Images)
	}

	// Open-world capture: unknown non-empty keys land in specs, empty and
	// null keys do not.
	if got := p.Spec("motor"); got != "Bosch Performance CX" {
		t.Errorf("expected motor spec captured, got %q", got)
	}
	if got := p.Spec("fork_length"); got != "150" {
		t.Errorf("expected fork_length spec captured, got %q", got)
	}
	if _, ok := p.Specs["rear_shock"]; ok {
		t.Error("empty value must not be captured into specs")
	}
	if _, ok := p.Specs["battery"]; ok {
		t.Error("null value must not be captured into specs")
	}
	if _, ok := p.Specs["price"]; ok {
		t.Error("root keys must not leak into specs")
	}
}

func TestNormalizeLegacyUppercaseKeys(t *testing.T) {
	// The legacy search API returns capitalized, space-separated keys.
	raw := map[string]any{
		"id":          "whistle_1",
		"Firm":        "Whistle",
		"Model":       "B-Rush",
		"Year":        float64(2023),
		"Price":       "18,900",
		"Image URL":   "https://img.example/brush.jpg",
		"Product URL": "https://shop.example/brush",
		"Battery":     "625Wh",
	}

	p := Normalize(raw)

	if p.Brand != "Whistle" || p.Model != "B-Rush" || p.Year != 2023 {
		t.Errorf("uppercase legacy keys not normalized: %+v", p)
	}
	if p.Listing.Price != "18,900" || p.Listing.OriginalPrice != "18,900" {
		t.Errorf("expected effective price to fall back to base price: %+v", p.Listing)
	}
	if len(p.Images) != 1 || p.Images[0] != "https://img.example/brush.jpg" {
		t.Errorf("unexpected images: %v", p.Images)
	}
	if got := p.Spec("battery"); got != "625Wh" {
		t.Errorf("expected Battery captured as spec, got %q", got)
	}
}

func TestNormalizeCanonicalPassThrough(t *testing.T) {
	raw := map[string]any{
		"id":    "uuid-1",
		"brand": "Giant",
		"model": "Trance X E+",
		"year":  float64(2025),
		"listing": map[string]any{
			"price":          "24,000",
			"original_price": "29,000",
			"product_url":    "https://shop.example/trance",
		},
		"specs": map[string]any{
			"Motor": "Giant SyncDrive Pro2",
		},
		"images": []any{"https://img.example/trance.jpg"},
	}

	first := Normalize(raw)
	if first.Brand != "Giant" || first.Listing.Price != "24,000" {
		t.Fatalf("canonical input mangled: %+v", first)
	}
	if got := first.Spec("motor"); got != "Giant SyncDrive Pro2" {
		t.Errorf("canonical specs not preserved, got %q", got)
	}

	// Round-trip stability: re-normalizing an already-canonical record keeps
	// it equivalent.
	second := Normalize(map[string]any{
		"id":    first.ID,
		"brand": first.Brand,
		"model": first.Model,
		"year":  float64(first.Year),
		"listing": map[string]any{
			"price":          first.Listing.Price,
			"original_price": first.Listing.OriginalPrice,
			"product_url":    first.Listing.ProductURL,
		},
		"specs":  map[string]any{"Motor": first.Spec("motor")},
		"images": []any{first.Images[0]},
	})
	if second.Brand != first.Brand || second.Listing != first.Listing ||
		second.Spec("motor") != first.Spec("motor") {
		t.Errorf("round trip diverged: %+v vs %+v", first, second)
	}
}

func TestNormalizeCanonicalDefaultsMissingSubObjects(t *testing.T) {
	p := Normalize(map[string]any{
		"brand":   "Scott",
		"listing": map[string]any{},
	})
	if p.Specs == nil {
		t.Error("specs must default to empty, not nil")
	}
	if p.Images == nil {
		t.Error("images must default to empty, not nil")
	}
}

func TestNormalizeBadGalleryDegradesToEmpty(t *testing.T) {
	p := Normalize(map[string]any{
		"firm":                "KTM",
		"model":               "Macina",
		"gallery_images_urls": "{not json",
	})
	if len(p.Images) != 0 {
		t.Errorf("expected no images on parse failure, got %v", p.Images)
	}
}

func TestNormalizeFlattensMarkupInShortSpecs(t *testing.T) {
	p := Normalize(map[string]any{
		"firm":  "Cube",
		"model": "Reaction",
		"frame": "<b>Aluminium</b> Superlite",
	})
	if got := p.Spec("frame"); got != "Aluminium Superlite" {
		t.Errorf("expected markup flattened, got %q", got)
	}
}
