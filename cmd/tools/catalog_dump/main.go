// catalog_dump fetches the live catalog from the backend, runs it through the
// normalizer and filter chain, and prints the result as a table. Useful for
// eyeballing what a given set of filter flags would return.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rideal/bike-catalog/internal/catalog"
	"github.com/rideal/bike-catalog/internal/config"
	"github.com/rideal/bike-catalog/internal/upstream"
)

func main() {
	minPrice := flag.Int("min-price", 0, "minimum effective price")
	maxPrice := flag.Int("max-price", 0, "maximum effective price")
	brand := flag.String("brand", "", "brand filter (exact, case-insensitive)")
	material := flag.String("material", "", "frame material (carbon/aluminium)")
	discount := flag.Bool("discount", false, "discounted items only")
	query := flag.String("q", "", "free-text search")
	sortDir := flag.String("sort", "none", "sort by effective price: asc, desc, none")
	category := flag.String("category", "", "category id for slider defaults")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := upstream.NewClient(cfg.Upstream.BaseURL, 30*time.Second)
	records, err := client.FilterBikes(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to fetch catalog: %v", err)
	}

	products := make([]catalog.Product, 0, len(records))
	for _, record := range records {
		products = append(products, catalog.Normalize(record))
	}

	crit := catalog.Criteria{
		Query:         *query,
		MinPrice:      *minPrice,
		MaxPrice:      *maxPrice,
		FrameMaterial: *material,
		DiscountOnly:  *discount,
	}
	if *brand != "" {
		crit.Brands = []string{*brand}
	}

	limits := cfg.LimitsFor(*category)
	filtered := catalog.SortByEffectivePrice(
		catalog.Filter(products, crit, limits),
		catalog.SortDirection(*sortDir),
	)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Brand", "Model", "Year", "Price", "Original", "Motor", "Material"})

	for _, p := range filtered {
		view := catalog.Project(p)
		t.AppendRow(table.Row{
			p.ID, p.Brand, p.Model, p.Year,
			view.Price.Display, view.Price.Original,
			catalog.ClassifyMotorBrand(p), catalog.ClassifyFrameMaterial(p),
		})
	}
	t.Render()
	log.Printf("%d of %d products matched", len(filtered), len(products))
}
