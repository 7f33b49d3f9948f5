package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// legacyRootKeys are the flat-shape keys that map to canonical root/listing
// fields rather than into Specs. Keys are compared in normalized form, so the
// search API's "Image URL" and the filter API's "image_url" both match.
var legacyRootKeys = map[string]struct{}{
	"id":                  {},
	"uuid":                {},
	"slug":                {},
	"firm":                {},
	"brand":               {},
	"model":               {},
	"year":                {},
	"category":            {},
	"sub_category":        {},
	"image_url":           {},
	"gallery_images_urls": {},
	"product_url":         {},
	"price":               {},
	"disc_price":          {},
}

// Normalize maps a raw product record of either historical shape into the
// canonical Product. Canonical input (detected by a brand+listing pair) is
// passed through non-destructively, with missing sub-objects defaulted to
// empty. Anything else is treated as the legacy flat shape: known root keys
// are lifted into the canonical fields and every other present, non-empty key
// is captured into Specs verbatim, so new backend fields surface without code
// changes here.
func Normalize(raw map[string]any) Product {
	if isCanonical(raw) {
		return fromCanonical(raw)
	}
	return fromLegacyFlat(raw)
}

func isCanonical(raw map[string]any) bool {
	_, hasBrand := raw["brand"]
	_, hasListing := raw["listing"]
	return hasBrand && hasListing
}

func fromCanonical(raw map[string]any) Product {
	p := Product{
		ID:          asString(raw["id"]),
		Brand:       asString(raw["brand"]),
		Model:       asString(raw["model"]),
		Category:    asString(raw["category"]),
		SubCategory: asString(raw["sub_category"]),
		Year:        asYear(raw["year"]),
		Specs:       map[string]string{},
	}

	if listing, ok := raw["listing"].(map[string]any); ok {
		p.Listing = Listing{
			Price:         asString(listing["price"]),
			OriginalPrice: asString(listing["original_price"]),
			ProductURL:    asString(listing["product_url"]),
		}
		// The pre-discount price is only published alongside a discount.
		p.hasDiscount = p.Listing.Price != "" && p.Listing.OriginalPrice != ""
	}

	if specs, ok := raw["specs"].(map[string]any); ok {
		for key, value := range specs {
			p.setSpec(key, asString(value))
		}
	}

	if images, ok := raw["images"].([]any); ok {
		for _, img := range images {
			if url := asString(img); url != "" {
				p.Images = append(p.Images, url)
			}
		}
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	return p
}

func fromLegacyFlat(raw map[string]any) Product {
	p := Product{Specs: map[string]string{}, Images: []string{}}

	for key, value := range raw {
		norm := normalizeSpecKey(key)
		str := asString(value)
		if str == "" {
			continue
		}

		if _, root := legacyRootKeys[norm]; !root {
			p.setSpec(key, str)
			continue
		}

		switch norm {
		case "id", "uuid":
			if p.ID == "" {
				p.ID = str
			}
		case "firm", "brand":
			p.Brand = str
		case "model":
			p.Model = str
		case "year":
			p.Year = asYear(value)
		case "category":
			p.Category = str
		case "sub_category":
			p.SubCategory = str
		case "image_url":
			p.Images = append([]string{str}, p.Images...)
		case "gallery_images_urls":
			p.Images = append(p.Images, parseGallery(str)...)
		case "product_url":
			p.Listing.ProductURL = str
		case "price":
			p.Listing.OriginalPrice = str
		case "disc_price":
			p.Listing.Price = str
			p.hasDiscount = true
		}
	}

	// Effective price falls back to the base price when no discount exists.
	if p.Listing.Price == "" {
		p.Listing.Price = p.Listing.OriginalPrice
	}

	return p
}

func (p *Product) setSpec(key, value string) {
	norm := normalizeSpecKey(key)
	if norm == "" || value == "" {
		return
	}
	// Short values feed the filter predicates, so markup is flattened to
	// plain text. Long values are display-only; the projector sanitizes them
	// with their formatting intact.
	if strings.Contains(value, "<") && utf8.RuneCountInString(value) <= CollapseThreshold {
		value = flattenHTML(value)
	}
	if _, seen := p.Specs[norm]; !seen {
		p.specKeys = append(p.specKeys, strings.TrimSpace(key))
	}
	p.Specs[norm] = value
}

// parseGallery decodes the JSON-encoded image list the backend stores as a
// string. A malformed payload degrades to no gallery images.
func parseGallery(encoded string) []string {
	var urls []string
	if err := json.Unmarshal([]byte(encoded), &urls); err != nil {
		log.Printf("Failed to parse gallery images: %v", err)
		return nil
	}
	var out []string
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// flattenHTML converts markup that leaked into a spec value to plain text.
func flattenHTML(value string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return value
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// asString renders a raw JSON value for canonical storage. nil, empty strings
// and the backend's textual null markers all mean "absent".
func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(val)
		switch s {
		case "None", "N/A", "#N/A", "null":
			return ""
		}
		return s
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

func asYear(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return 0
}
