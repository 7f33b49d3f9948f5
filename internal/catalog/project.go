package catalog

import (
	"html/template"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// CollapseThreshold is the display length (in runes) above which a spec value
// gets a collapsed/expandable affordance instead of inline rendering.
const CollapseThreshold = 100

// specLabels translates normalized spec keys to the site's Hebrew labels.
// Keys without a translation fall back to a decamelized display name.
var specLabels = map[string]string{
	"frame":          "שלדה",
	"frame_material": "חומר שלדה",
	"motor":          "מנוע",
	"battery":        "סוללה",
	"wh":             "קיבולת סוללה",
	"fork":           "בולם קדמי",
	"fork_length":    "מהלך בולם",
	"rear_shock":     "בולם אחורי",
	"shifter":        "ידית הילוכים",
	"rear_der":       "מעביר אחורי",
	"cassette":       "קסטה",
	"chain":          "שרשרת",
	"crank_set":      "קראנק",
	"brakes":         "בלמים",
	"front_brake":    "בלם קדמי",
	"rear_brake":     "בלם אחורי",
	"wheel_size":     "גודל גלגלים",
	"saddle":         "אוכף",
	"seat_post":      "מוט אוכף",
	"handlebar":      "כידון",
	"stem":           "סטם",
	"tires":          "צמיגים",
	"charger":        "מטען",
	"screen":         "צג",
	"pedals":         "פדלים",
	"weight":         "משקל",
	"style":          "סגנון רכיבה",
}

// curatedSpecOrder fixes the display order of the common spec rows; keys not
// listed here follow, sorted by key.
var curatedSpecOrder = []string{
	"frame", "frame_material", "motor", "battery", "wh", "fork", "fork_length",
	"rear_shock", "shifter", "rear_der", "cassette", "chain", "crank_set",
	"front_brake", "rear_brake", "brakes", "wheel_size", "tires", "handlebar",
	"stem", "saddle", "seat_post", "charger", "screen", "pedals", "weight", "style",
}

var specValuePolicy = bluemonday.UGCPolicy()

// PriceView is the rendered price block of a card.
type PriceView struct {
	// Display is the effective price, thousands-formatted, or the sentinel
	// verbatim when no numeric price is published.
	Display string `json:"display"`
	// Original is the struck-through pre-discount price; empty when there is
	// no visible discount.
	Original string `json:"original,omitempty"`
	Discounted bool `json:"discounted"`
	Sentinel   bool `json:"sentinel"`
}

// CardView is the per-product view model for the catalog grid.
type CardView struct {
	ID          string    `json:"id"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Year        int       `json:"year,omitempty"`
	Image       string    `json:"image,omitempty"`
	Price       PriceView `json:"price"`
	ProductURL  string    `json:"product_url,omitempty"`
	CanPurchase bool      `json:"can_purchase"`
	Compared    bool      `json:"compared"`
}

// SpecRow is one localized row of the details table.
type SpecRow struct {
	Key         string        `json:"key"`
	Label       string        `json:"label"`
	Value       template.HTML `json:"value"`
	Preview     string        `json:"preview,omitempty"`
	Collapsible bool          `json:"collapsible"`
}

// DetailView is the view model for the product details modal.
type DetailView struct {
	CardView
	Images []string  `json:"images"`
	Specs  []SpecRow `json:"specs"`
}

// Project builds the card view model for one product. Projection is pure:
// the same product always yields the same view model.
func Project(p Product) CardView {
	card := CardView{
		ID:         p.ID,
		Brand:      p.Brand,
		Model:      p.Model,
		Year:       p.Year,
		ProductURL: p.Listing.ProductURL,
		Price:      projectPrice(p.Listing),
	}
	if len(p.Images) > 0 {
		card.Image = p.Images[0]
	}
	card.CanPurchase = card.ProductURL != ""
	return card
}

func projectPrice(l Listing) PriceView {
	effective := FormatPrice(l.Price)
	view := PriceView{Display: effective, Sentinel: effective == SentinelPrice}
	if view.Sentinel {
		return view
	}

	original, ok := ParsePrice(l.OriginalPrice)
	current, _ := ParsePrice(l.Price)
	if ok && original != current {
		view.Original = FormatPrice(l.OriginalPrice)
		view.Discounted = true
	}
	return view
}

// ProjectDetails builds the full details view: the card plus localized spec
// rows in curated order, with long values collapsed and sanitized for HTML
// rendering.
func ProjectDetails(p Product) DetailView {
	detail := DetailView{CardView: Project(p), Images: p.Images}

	// Fallback labels are generated from the key as the backend spelled it,
	// so camelCase keys keep their word boundaries.
	originals := make(map[string]string, len(p.specKeys))
	for _, orig := range p.specKeys {
		norm := normalizeSpecKey(orig)
		if _, ok := originals[norm]; !ok {
			originals[norm] = orig
		}
	}
	labelFor := func(key string) string {
		if label, ok := specLabels[key]; ok {
			return label
		}
		if orig, ok := originals[key]; ok {
			return Decamelize(orig)
		}
		return Decamelize(key)
	}

	seen := make(map[string]bool, len(p.Specs))
	for _, key := range curatedSpecOrder {
		if value := p.Specs[key]; value != "" {
			detail.Specs = append(detail.Specs, projectSpecRow(key, labelFor(key), value))
			seen[key] = true
		}
	}

	var rest []string
	for key := range p.Specs {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		detail.Specs = append(detail.Specs, projectSpecRow(key, labelFor(key), p.Specs[key]))
	}

	return detail
}

func projectSpecRow(key, label, value string) SpecRow {
	row := SpecRow{Key: key, Label: label}
	sanitized := specValuePolicy.Sanitize(value)
	row.Value = template.HTML(sanitized)
	if utf8.RuneCountInString(sanitized) > CollapseThreshold {
		row.Collapsible = true
		row.Preview = truncateRunes(plainText(sanitized), CollapseThreshold)
	}
	return row
}

// SpecLabel returns the Hebrew label for a spec key, or a decamelized
// fallback for keys the translation table does not cover.
func SpecLabel(key string) string {
	if label, ok := specLabels[normalizeSpecKey(key)]; ok {
		return label
	}
	return Decamelize(key)
}

// MarkCompared flags the cards whose products are on the compare list.
// Called again whenever the authoritative list changes.
func MarkCompared(cards []CardView, compareList []string) {
	selected := make(map[string]bool, len(compareList))
	for _, id := range compareList {
		selected[id] = true
	}
	for i := range cards {
		cards[i].Compared = selected[cards[i].ID]
	}
}

func plainText(value string) string {
	if strings.Contains(value, "<") {
		value = flattenHTML(value)
	}
	return value
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
