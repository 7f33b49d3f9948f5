package catalog

// SentinelPrice is the placeholder the shops publish instead of a number.
// It is displayed verbatim and never participates in range filtering.
const SentinelPrice = "צור קשר"

// Listing holds the commercial part of a product record.
// Price is the effective (possibly discounted) price; OriginalPrice is the
// pre-discount price. Either may hold SentinelPrice instead of a number.
type Listing struct {
	Price         string `json:"price"`
	OriginalPrice string `json:"original_price"`
	ProductURL    string `json:"product_url"`
}

// Product is the canonical record every raw shape is normalized into.
type Product struct {
	ID          string            `json:"id"`
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	Year        int               `json:"year,omitempty"` // 0 means unknown
	Category    string            `json:"category,omitempty"`
	SubCategory string            `json:"sub_category,omitempty"`
	Listing     Listing           `json:"listing"`
	Specs       map[string]string `json:"specs"`
	Images      []string          `json:"images"`

	// specKeys preserves the original casing of spec keys in insertion order,
	// for display-name fallback generation.
	specKeys []string

	// hasDiscount records whether the record carried a discounted price
	// field, independent of whether it differs from the base price.
	hasDiscount bool
}

// HasDiscount reports whether the record published a discounted price. A
// discount equal to the base price still counts as one.
func (p Product) HasDiscount() bool {
	return p.hasDiscount
}

// Spec looks up a spec value by its normalized key (lower case, spaces and
// underscores folded). The empty string means absent.
func (p Product) Spec(key string) string {
	return p.Specs[normalizeSpecKey(key)]
}

// SpecKeys returns the original-cased spec keys in the order they were seen.
func (p Product) SpecKeys() []string {
	return p.specKeys
}

// Criteria is the ephemeral filter state derived from the UI on every pass.
// The zero value of each field means "no constraint".
type Criteria struct {
	Query         string
	MinPrice      int
	MaxPrice      int
	Years         []int
	Brands        []string
	MotorBrands   []string
	MinBattery    int
	MaxBattery    int
	MinForkLength int
	MaxForkLength int
	FrameMaterial string // "carbon", "aluminium", or "" for all
	DiscountOnly  bool
}

// SortDirection orders the filtered set by effective price.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
	SortNone SortDirection = "none"
)

// CategoryLimits are the configured slider defaults for a category. An
// untouched slider sits exactly on these bounds, and the matching side of the
// range check is skipped so open-ended items are not accidentally excluded.
type CategoryLimits struct {
	MinPrice      int  `yaml:"min_price"`
	MaxPrice      int  `yaml:"max_price"`
	MinBattery    int  `yaml:"min_battery"`
	MaxBattery    int  `yaml:"max_battery"`
	MinForkLength int  `yaml:"min_fork_length"`
	MaxForkLength int  `yaml:"max_fork_length"`
	FilterBattery bool `yaml:"filter_battery"`
	FilterFork    bool `yaml:"filter_fork"`
}
