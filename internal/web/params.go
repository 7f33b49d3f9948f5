package web

import (
	"net/url"
	"strconv"

	"github.com/rideal/bike-catalog/internal/catalog"
)

// criteriaFromQuery maps the filter endpoint's query parameters onto filter
// criteria. Unparsable values are ignored, leaving that criterion unset.
// Both `firm` (legacy) and `brand` parameter names are accepted.
func criteriaFromQuery(q url.Values) catalog.Criteria {
	var crit catalog.Criteria

	crit.Query = q.Get("q")
	crit.MinPrice = intParam(q, "min_price")
	crit.MaxPrice = intParam(q, "max_price")
	crit.MinBattery = intParam(q, "min_battery")
	crit.MaxBattery = intParam(q, "max_battery")
	crit.MinForkLength = intParam(q, "min_fork_length")
	crit.MaxForkLength = intParam(q, "max_fork_length")

	for _, raw := range q["year"] {
		if year, err := strconv.Atoi(raw); err == nil && year > 0 {
			crit.Years = append(crit.Years, year)
		}
	}
	crit.Brands = append(crit.Brands, q["firm"]...)
	crit.Brands = append(crit.Brands, q["brand"]...)
	crit.MotorBrands = q["motor_brand"]
	crit.FrameMaterial = q.Get("frame_material")
	crit.DiscountOnly = q.Get("has_discount") == "true"

	return crit
}

func sortFromQuery(q url.Values) catalog.SortDirection {
	switch q.Get("sort") {
	case "asc":
		return catalog.SortAsc
	case "desc":
		return catalog.SortDesc
	default:
		return catalog.SortNone
	}
}

func intParam(q url.Values, name string) int {
	v, err := strconv.Atoi(q.Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
