package dedup

import (
	"strings"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

const (
	// trailing phone digits kept as the customer key
	phoneKeyDigits = 9

	// shorter phones cannot identify a customer
	minPhoneDigits = 8

	// unmatched product names are truncated to this length
	maxRawProductKey = 40
)

// Normalizer derives CustomerProductKeys from raw transactions
type Normalizer struct {
	catalog *domain.ProductCatalog
}

// NewNormalizer creates a normalizer backed by the product-code table
func NewNormalizer(catalog *domain.ProductCatalog) *Normalizer {
	return &Normalizer{catalog: catalog}
}

// CustomerKey returns the lower-cased trimmed email, or the last 9 digits of
// the phone number when no email is present. A phone with fewer than 8 digits
// cannot identify a customer: it yields a DATA_INTEGRITY error, and the
// transaction is reported as a skipped record instead of being attributed.
func (n *Normalizer) CustomerKey(tx *domain.Transaction) (string, error) {
	if email := strings.ToLower(strings.TrimSpace(tx.CustomerEmail)); email != "" {
		return email, nil
	}

	digits := onlyDigits(tx.CustomerPhone)
	if len(digits) == 0 {
		return "", domain.NewDataIntegrityError("transaction %s has neither email nor phone", tx.ID).
			WithDetail("transaction_id", tx.ID)
	}
	if len(digits) < minPhoneDigits {
		return "", domain.NewDataIntegrityError("transaction %s: phone %q too short to identify a customer", tx.ID, tx.CustomerPhone).
			WithDetail("transaction_id", tx.ID)
	}
	if len(digits) > phoneKeyDigits {
		digits = digits[len(digits)-phoneKeyDigits:]
	}
	return digits, nil
}

// ProductKey returns the catalog code of the first matching pattern, or the
// trimmed raw name upper-cased and truncated to 40 characters.
func (n *Normalizer) ProductKey(tx *domain.Transaction) (string, error) {
	name := strings.TrimSpace(tx.ProductName)
	if name == "" {
		return "", domain.NewDataIntegrityError("transaction %s has no product name", tx.ID).
			WithDetail("transaction_id", tx.ID)
	}

	if n.catalog != nil {
		if code, ok := n.catalog.Match(name); ok {
			return code, nil
		}
	}

	raw := []rune(strings.ToUpper(name))
	if len(raw) > maxRawProductKey {
		raw = raw[:maxRawProductKey]
	}
	return string(raw), nil
}

// Key returns the CustomerProductKey of tx
func (n *Normalizer) Key(tx *domain.Transaction) (domain.CustomerProductKey, error) {
	customer, err := n.CustomerKey(tx)
	if err != nil {
		return domain.CustomerProductKey{}, err
	}
	product, err := n.ProductKey(tx)
	if err != nil {
		return domain.CustomerProductKey{}, err
	}
	return domain.CustomerProductKey{Customer: customer, Product: product}, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
