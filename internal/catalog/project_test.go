package catalog

import (
	"reflect"
	"strings"
	"testing"
)

func TestProjectDiscountDisplay(t *testing.T) {
	discounted := legacyProduct(map[string]any{
		"id": "d", "firm": "Cube", "model": "Stereo", "price": "5000", "disc_price": "4000",
	})
	card := Project(discounted)
	if card.Price.Display != "4,000" || card.Price.Original != "5,000" || !card.Price.Discounted {
		t.Errorf("expected struck-through 5,000 with highlighted 4,000, got %+v", card.Price)
	}

	plain := legacyProduct(map[string]any{
		"id": "p", "firm": "Cube", "model": "Stereo", "price": "5000",
	})
	card = Project(plain)
	if card.Price.Display != "5,000" || card.Price.Original != "" || card.Price.Discounted {
		t.Errorf("expected single price line, got %+v", card.Price)
	}
}

func TestProjectSentinelPrice(t *testing.T) {
	p := legacyProduct(map[string]any{
		"id": "s", "firm": "Rosen", "model": "Custom", "price": SentinelPrice,
	})
	card := Project(p)
	if !card.Price.Sentinel || card.Price.Display != SentinelPrice {
		t.Errorf("sentinel must display verbatim, got %+v", card.Price)
	}
	if card.Price.Discounted || card.Price.Original != "" {
		t.Errorf("sentinel price must never show a discount block, got %+v", card.Price)
	}
}

func TestProjectPurchaseGating(t *testing.T) {
	withURL := legacyProduct(map[string]any{
		"id": "w", "firm": "A", "model": "M", "price": "1", "product_url": "https://shop.example/x",
	})
	if card := Project(withURL); !card.CanPurchase {
		t.Error("purchase affordance expected when product url is present")
	}

	withoutURL := legacyProduct(map[string]any{"id": "n", "firm": "A", "model": "M", "price": "1"})
	if card := Project(withoutURL); card.CanPurchase {
		t.Error("purchase affordance must be gated on a non-empty product url")
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	p := legacyProduct(map[string]any{
		"id": "i", "firm": "Giant", "model": "Trance", "price": "20000", "disc_price": "18000",
		"motor": "SyncDrive", "wh": "625",
	})
	first := ProjectDetails(p)
	second := ProjectDetails(p)
	if !reflect.DeepEqual(first, second) {
		t.Error("re-projecting the same product must yield the same view model")
	}
}

func TestProjectDetailsSpecOrderAndLabels(t *testing.T) {
	p := legacyProduct(map[string]any{
		"id": "o", "firm": "Cube", "model": "Stereo", "price": "1",
		"saddle":   "Natural Fit",
		"motor":    "Bosch CX",
		"frame":    "C:62 Carbon",
		"rear_der": "XT M8100",
		"zz_extra": "aftermarket rack",
	})
	detail := ProjectDetails(p)

	var keys []string
	for _, row := range detail.Specs {
		keys = append(keys, row.Key)
	}
	// Curated keys first in fixed order, the rest after.
	want := []string{"frame", "motor", "rear_der", "saddle", "zz_extra"}
	if !equalIDs(keys, want) {
		t.Errorf("unexpected spec order: %v", keys)
	}

	byKey := map[string]SpecRow{}
	for _, row := range detail.Specs {
		byKey[row.Key] = row
	}
	if byKey["motor"].Label != "מנוע" {
		t.Errorf("expected translated label for motor, got %q", byKey["motor"].Label)
	}
	if byKey["zz_extra"].Label != "Zz Extra" {
		t.Errorf("expected decamelized fallback label, got %q", byKey["zz_extra"].Label)
	}
}

func TestFallbackLabelKeepsOriginalCasing(t *testing.T) {
	// Untranslated camelCase keys are looked up by their normalized form but
	// labelled from the key as the backend spelled it.
	p := legacyProduct(map[string]any{
		"id": "c", "firm": "Cube", "model": "Stereo", "price": "1",
		"forkLength":  "160mm",
		"batteryType": "InTube",
	})
	detail := ProjectDetails(p)

	byKey := map[string]SpecRow{}
	for _, row := range detail.Specs {
		byKey[row.Key] = row
	}
	if byKey["forklength"].Label != "Fork Length" {
		t.Errorf("expected word boundaries from the original key, got %q", byKey["forklength"].Label)
	}
	if byKey["batterytype"].Label != "Battery Type" {
		t.Errorf("expected word boundaries from the original key, got %q", byKey["batterytype"].Label)
	}
}

func TestDecamelizeNonASCII(t *testing.T) {
	cases := map[string]string{
		"rear_der":   "Rear Der",
		"forkLength": "Fork Length",
		"צבע_שלדה":   "צבע שלדה",
		"גלגל קדמי":  "גלגל קדמי",
	}
	for in, want := range cases {
		if got := Decamelize(in); got != want {
			t.Errorf("Decamelize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProjectDetailsCollapsesLongValues(t *testing.T) {
	long := strings.Repeat("רכיב ", 40) // well past the collapse threshold
	p := legacyProduct(map[string]any{
		"id": "l", "firm": "A", "model": "M", "price": "1",
		"extras": long,
		"motor":  "Bosch",
	})
	detail := ProjectDetails(p)

	for _, row := range detail.Specs {
		switch row.Key {
		case "extras":
			if !row.Collapsible {
				t.Error("long value must be collapsible")
			}
			if row.Preview == "" || !strings.HasSuffix(row.Preview, "...") {
				t.Errorf("expected truncated preview, got %q", row.Preview)
			}
		case "motor":
			if row.Collapsible {
				t.Error("short value must render inline")
			}
		}
	}
}

func TestProjectDetailsSanitizesMarkup(t *testing.T) {
	long := "<script>alert(1)</script><p>" + strings.Repeat("תיאור ארוך ", 20) + "</p>"
	p := legacyProduct(map[string]any{
		"id": "x", "firm": "A", "model": "M", "price": "1", "description": long,
	})
	detail := ProjectDetails(p)

	for _, row := range detail.Specs {
		if row.Key != "description" {
			continue
		}
		if strings.Contains(string(row.Value), "<script") {
			t.Error("script tags must be stripped from rendered values")
		}
		if !strings.Contains(string(row.Value), "<p>") {
			t.Error("benign formatting should survive sanitization")
		}
	}
}

func TestMarkCompared(t *testing.T) {
	cards := []CardView{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	MarkCompared(cards, []string{"b"})
	if cards[0].Compared || !cards[1].Compared || cards[2].Compared {
		t.Errorf("unexpected compare marks: %+v", cards)
	}
	MarkCompared(cards, nil)
	if cards[1].Compared {
		t.Error("clearing the list must unmark all cards")
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5000", "5,000"},
		{"1234567", "1,234,567"},
		{"900", "900"},
		{SentinelPrice, SentinelPrice},
		{"", SentinelPrice},
		{"n/a", SentinelPrice},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
