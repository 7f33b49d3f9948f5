package catalog

import "sort"

// EffectivePrice is the numeric price a product sorts by: the discounted
// price when numeric, else the base price when numeric, else 0. Sentinel and
// missing prices sorting as zero is long-standing site behavior, kept as is.
func EffectivePrice(p Product) int {
	if price, ok := ParsePrice(p.Listing.Price); ok {
		return price
	}
	if price, ok := ParsePrice(p.Listing.OriginalPrice); ok {
		return price
	}
	return 0
}

// SortByEffectivePrice returns a new slice ordered by effective price. The
// sort is stable, so equal prices keep their fetch order; SortNone returns
// the input order unchanged. No secondary key is defined.
func SortByEffectivePrice(products []Product, direction SortDirection) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	switch direction {
	case SortAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return EffectivePrice(out[i]) < EffectivePrice(out[j])
		})
	case SortDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return EffectivePrice(out[i]) > EffectivePrice(out[j])
		})
	}
	return out
}
