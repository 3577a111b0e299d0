package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// ProductCode maps free-text product names to a canonical code
type ProductCode struct {
	Pattern *regexp.Regexp
	Code    string
}

// ProductCatalog is the ordered product-code table plus the reference
// (list) price per code. The first matching pattern wins.
type ProductCatalog struct {
	referencePrices map[string]decimal.Decimal
	codes           []ProductCode
}

// NewProductCatalog validates and builds a catalog.
// Reference prices may name codes that have no pattern (raw-name fallbacks).
func NewProductCatalog(codes []ProductCode, referencePrices map[string]decimal.Decimal) (*ProductCatalog, error) {
	seen := make(map[string]struct{}, len(codes))
	for i, c := range codes {
		if c.Code == "" {
			return nil, NewConfigurationError("product code %d has an empty code", i)
		}
		if c.Pattern == nil {
			return nil, NewConfigurationError("product code %q has no pattern", c.Code).
				WithDetail("code", c.Code)
		}
		if _, dup := seen[c.Code]; dup {
			return nil, NewConfigurationError("product code %q defined twice", c.Code).
				WithDetail("code", c.Code)
		}
		seen[c.Code] = struct{}{}
	}

	prices := make(map[string]decimal.Decimal, len(referencePrices))
	for code, price := range referencePrices {
		if code == "" {
			return nil, NewConfigurationError("reference price with an empty product code")
		}
		if price.IsNegative() {
			return nil, NewConfigurationError("reference price for %q is negative: %s", code, price).
				WithDetail("code", code)
		}
		prices[code] = price
	}

	copied := make([]ProductCode, len(codes))
	copy(copied, codes)

	return &ProductCatalog{codes: copied, referencePrices: prices}, nil
}

// Match returns the code of the first pattern matching name
func (c *ProductCatalog) Match(name string) (string, bool) {
	for _, pc := range c.codes {
		if pc.Pattern.MatchString(name) {
			return pc.Code, true
		}
	}
	return "", false
}

// ReferencePrice returns the list price configured for a product code
func (c *ProductCatalog) ReferencePrice(code string) (decimal.Decimal, bool) {
	price, ok := c.referencePrices[code]
	return price, ok
}

// Codes returns the configured codes in match order
func (c *ProductCatalog) Codes() []string {
	out := make([]string, len(c.codes))
	for i, pc := range c.codes {
		out[i] = pc.Code
	}
	return out
}
