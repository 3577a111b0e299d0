package fixtures

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

// Catalog returns a two-product catalog: A009 (19500) checked before
// A001 (497), so "Incorporador Completo" resolves to A009.
func Catalog() *domain.ProductCatalog {
	catalog, err := domain.NewProductCatalog(
		[]domain.ProductCode{
			{Code: "A009", Pattern: regexp.MustCompile(`(?i)a009|incorporador.*completo`)},
			{Code: "A001", Pattern: regexp.MustCompile(`(?i)a0*01|incorporador`)},
		},
		map[string]decimal.Decimal{
			"A001": Dec("497"),
			"A009": Dec("19500"),
		},
	)
	if err != nil {
		panic(err)
	}
	return catalog
}
