package dedup

import (
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

func testCatalog(t *testing.T) *domain.ProductCatalog {
	t.Helper()
	catalog, err := domain.NewProductCatalog(
		[]domain.ProductCode{
			{Code: "A009", Pattern: regexp.MustCompile(`(?i)a009|incorporador.*completo`)},
			{Code: "A001", Pattern: regexp.MustCompile(`(?i)a0*01|incorporador`)},
		},
		map[string]decimal.Decimal{
			"A001": decimal.RequireFromString("497"),
			"A009": decimal.RequireFromString("19500"),
		},
	)
	require.NoError(t, err)
	return catalog
}

func TestNormalizer_CustomerKey(t *testing.T) {
	n := NewNormalizer(testCatalog(t))

	tests := []struct {
		name     string
		email    string
		phone    string
		expected string
		wantErr  bool
	}{
		{name: "email lower-cased and trimmed", email: "  Ana.Souza@Example.COM ", expected: "ana.souza@example.com"},
		{name: "email preferred over phone", email: "ana@example.com", phone: "11987654321", expected: "ana@example.com"},
		{name: "phone keeps last nine digits", phone: "+55 (11) 98765-4321", expected: "987654321"},
		{name: "phone with exactly nine digits", phone: "98765-4321", expected: "987654321"},
		{name: "eight digit landline", phone: "3232-1010", expected: "32321010"},
		{name: "blank email falls back to phone", email: "   ", phone: "011 98765 4321", expected: "987654321"},
		{name: "no contact", wantErr: true},
		{name: "phone without digits", phone: "n/a", wantErr: true},
		{name: "phone fragment", phone: "12345", wantErr: true},
		{name: "seven digits is below the minimum", phone: "323-1010", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := n.CustomerKey(&domain.Transaction{ID: "tx", CustomerEmail: tt.email, CustomerPhone: tt.phone})
			if tt.wantErr {
				assert.True(t, domain.IsDataIntegrityError(err), "expected data integrity error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestNormalizer_ProductKey(t *testing.T) {
	n := NewNormalizer(testCatalog(t))
	longName := "Mentoria individual de incorpor" + strings.Repeat("x", 30)

	tests := []struct {
		name     string
		product  string
		expected string
		wantErr  bool
	}{
		{name: "catalog code", product: "A001 - Curso Online", expected: "A001"},
		{name: "first pattern wins", product: "Incorporador Completo", expected: "A009"},
		{name: "fallback upper-cased", product: "  Consórcio Imóvel ", expected: "CONSÓRCIO IMÓVEL"},
		{name: "fallback truncated to forty characters", product: longName, expected: strings.ToUpper(longName)[:40]},
		{name: "empty name", product: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := n.ProductKey(&domain.Transaction{ID: "tx", ProductName: tt.product})
			if tt.wantErr {
				assert.True(t, domain.IsDataIntegrityError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestNormalizer_KeyWithoutCatalog(t *testing.T) {
	n := NewNormalizer(nil)

	key, err := n.Key(&domain.Transaction{ID: "tx", CustomerEmail: "Ana@Example.com", ProductName: "a001"})
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerProductKey{Customer: "ana@example.com", Product: "A001"}, key)
}
