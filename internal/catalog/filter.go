package catalog

import "strings"

// motorBrands is the fixed set of recognized motor makers. Anything else
// classifies as "other".
var motorBrands = []string{"shimano", "bosch", "tq", "specialized", "giant", "fazua", "dji", "yamaha"}

// Matches reports whether a product passes every active predicate in the
// criteria. Predicates are independent and evaluated as a conjunction, so the
// result does not depend on their order. The standing policy is that unknown
// or absent data includes the product, never excludes it: incompletely
// specified products must stay visible.
func Matches(p Product, c Criteria, limits CategoryLimits) bool {
	return matchesQuery(p, c.Query) &&
		matchesPrice(p, c, limits) &&
		matchesYear(p, c.Years) &&
		matchesBrand(p, c.Brands) &&
		matchesMotorBrand(p, c.MotorBrands) &&
		matchesRange(p.Spec("wh"), c.MinBattery, c.MaxBattery, limits.MinBattery, limits.MaxBattery, limits.FilterBattery) &&
		matchesRange(p.Spec("fork_length"), c.MinForkLength, c.MaxForkLength, limits.MinForkLength, limits.MaxForkLength, limits.FilterFork) &&
		matchesFrameMaterial(p, c.FrameMaterial) &&
		matchesDiscount(p, c.DiscountOnly)
}

// Filter applies Matches over a snapshot and returns the surviving products
// in their original order. The input is never mutated.
func Filter(products []Product, c Criteria, limits CategoryLimits) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if Matches(p, c, limits) {
			out = append(out, p)
		}
	}
	return out
}

func matchesQuery(p Product, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Brand), query) ||
		strings.Contains(strings.ToLower(p.Model), query)
}

// matchesPrice applies the price window to the effective price. The sentinel
// and unparsable prices always pass. The minimum is applied whenever it is
// positive; the maximum only when it was moved off the category default, so an
// untouched slider cannot hide items above the visible top of the range.
func matchesPrice(p Product, c Criteria, limits CategoryLimits) bool {
	price, ok := ParsePrice(p.Listing.Price)
	if !ok {
		price, ok = ParsePrice(p.Listing.OriginalPrice)
	}
	if !ok {
		return true
	}
	if c.MinPrice > 0 && price < c.MinPrice {
		return false
	}
	if c.MaxPrice > 0 && c.MaxPrice != limits.MaxPrice && price > c.MaxPrice {
		return false
	}
	return true
}

func matchesYear(p Product, years []int) bool {
	if len(years) == 0 || p.Year == 0 {
		return true
	}
	for _, y := range years {
		if p.Year == y {
			return true
		}
	}
	return false
}

func matchesBrand(p Product, brands []string) bool {
	if len(brands) == 0 {
		return true
	}
	for _, b := range brands {
		if strings.EqualFold(strings.TrimSpace(b), p.Brand) {
			return true
		}
	}
	return false
}

func matchesMotorBrand(p Product, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	brand := ClassifyMotorBrand(p)
	for _, s := range selected {
		if strings.EqualFold(strings.TrimSpace(s), brand) {
			return true
		}
	}
	return false
}

// matchesRange checks a numeric spec value against a slider window. It only
// applies when the category filters on this spec at all, the product carries
// a value, and the bound was moved off its category default.
func matchesRange(raw string, min, max, defMin, defMax int, relevant bool) bool {
	if !relevant {
		return true
	}
	value, ok := LeadingNumber(raw)
	if !ok {
		return true
	}
	if min > 0 && min != defMin && value < min {
		return false
	}
	if max > 0 && max != defMax && value > max {
		return false
	}
	return true
}

func matchesFrameMaterial(p Product, selected string) bool {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return true
	}
	material := ClassifyFrameMaterial(p)
	if material == "" {
		return true
	}
	return material == selected
}

func matchesDiscount(p Product, discountOnly bool) bool {
	if !discountOnly {
		return true
	}
	return p.hasDiscount
}

// ClassifyFrameMaterial derives "carbon" or "aluminium" from the explicit
// frame_material spec when present, otherwise from the combined free text of
// the frame description and the model name. Empty means unknown, which the
// filter treats as a pass.
func ClassifyFrameMaterial(p Product) string {
	if explicit := p.Spec("frame_material"); explicit != "" {
		if m := materialFromText(explicit); m != "" {
			return m
		}
	}
	frame := p.Spec("frame")
	if frame == "" && p.Model == "" {
		return ""
	}
	return materialFromText(frame + " " + p.Model)
}

func materialFromText(text string) string {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "carbon"):
		return "carbon"
	case strings.Contains(text, "aluminium"), strings.Contains(text, "aluminum"):
		return "aluminium"
	}
	return ""
}

// ClassifyMotorBrand matches the motor spec against the known maker list.
func ClassifyMotorBrand(p Product) string {
	motor := strings.ToLower(p.Spec("motor"))
	for _, brand := range motorBrands {
		if strings.Contains(motor, brand) {
			return brand
		}
	}
	return "other"
}
