package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
)

//go:embed rules.default.yaml
var defaultRules []byte

// TierSpec is one tier as written in the rule file. Decimals are strings so
// YAML floats never round the boundaries.
type TierSpec struct {
	Start      string `yaml:"start" validate:"required,numeric"`
	End        string `yaml:"end" validate:"omitempty,numeric"`
	Multiplier string `yaml:"multiplier" validate:"required,numeric"`
	Terminal   bool   `yaml:"terminal"`
}

// LadderSpec is a named tier ladder
type LadderSpec struct {
	Name  string     `yaml:"name" validate:"required"`
	Tiers []TierSpec `yaml:"tiers" validate:"required,min=1,dive"`
}

// ScheduleSpec lists the percentage owed per installment, index 1 first
type ScheduleSpec struct {
	ProductType string   `yaml:"product_type" validate:"required"`
	Percentages []string `yaml:"percentages" validate:"required,min=1,dive,numeric"`
}

// ProductCodeSpec maps a product-name pattern to a canonical code
type ProductCodeSpec struct {
	Code    string `yaml:"code" validate:"required"`
	Pattern string `yaml:"pattern" validate:"required"`
}

// RuleFile is the on-disk shape of the rule catalog
type RuleFile struct {
	Ladders         []LadderSpec      `yaml:"ladders" validate:"required,min=1,dive"`
	Schedules       []ScheduleSpec    `yaml:"schedules" validate:"required,min=1,dive"`
	ProductCodes    []ProductCodeSpec `yaml:"product_codes" validate:"dive"`
	ReferencePrices map[string]string `yaml:"reference_prices" validate:"dive,keys,required,endkeys,numeric"`
}

// Rules is the validated business rule catalog
type Rules struct {
	ladders  map[string]*domain.TierLadder
	Schedule *domain.CommissionSchedule
	Catalog  *domain.ProductCatalog
}

// DefaultRules returns the embedded development catalog
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads and validates the rule file at path; an empty path loads
// the embedded default
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeConfigurationInvalid, "read rule catalog "+path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule catalog. Every failure is a
// CONFIG_INVALID domain error.
func ParseRules(data []byte) (*Rules, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeConfigurationInvalid, "decode rule catalog", err)
	}

	if err := validator.New().Struct(&file); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, domain.NewConfigurationError("rule catalog: %s failed %q", fe.Namespace(), fe.Tag()).
				WithDetail("field", fe.Namespace())
		}
		return nil, domain.WrapError(domain.ErrorCodeConfigurationInvalid, "validate rule catalog", err)
	}

	rules := &Rules{ladders: make(map[string]*domain.TierLadder, len(file.Ladders))}

	for _, spec := range file.Ladders {
		if _, dup := rules.ladders[spec.Name]; dup {
			return nil, domain.NewConfigurationError("ladder %q defined twice", spec.Name)
		}
		ladder, err := buildLadder(spec)
		if err != nil {
			return nil, err
		}
		rules.ladders[spec.Name] = ladder
	}

	schedule, err := buildSchedule(file.Schedules)
	if err != nil {
		return nil, err
	}
	rules.Schedule = schedule

	catalog, err := buildCatalog(file.ProductCodes, file.ReferencePrices)
	if err != nil {
		return nil, err
	}
	rules.Catalog = catalog

	return rules, nil
}

// Ladder returns the named tier ladder. An unknown name is a CONFIG_INVALID
// error; callers resolving a client-supplied name report it as validation.
func (r *Rules) Ladder(name string) (*domain.TierLadder, error) {
	ladder, ok := r.ladders[name]
	if !ok {
		return nil, domain.NewConfigurationError("tier ladder %q is not configured", name).
			WithDetail("ladder", name)
	}
	return ladder, nil
}

// LadderNames returns the configured ladder names, sorted
func (r *Rules) LadderNames() []string {
	names := make([]string, 0, len(r.ladders))
	for name := range r.ladders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildLadder(spec LadderSpec) (*domain.TierLadder, error) {
	tiers := make([]domain.MultiplierTier, len(spec.Tiers))
	for i, t := range spec.Tiers {
		start, err := parseScaled(t.Start, domain.RateScale, "ladder %q tier %d start", spec.Name, i)
		if err != nil {
			return nil, err
		}
		multiplier, err := parseScaled(t.Multiplier, domain.RateScale, "ladder %q tier %d multiplier", spec.Name, i)
		if err != nil {
			return nil, err
		}
		tier := domain.MultiplierTier{RangeStart: start, Multiplier: multiplier, Terminal: t.Terminal}
		if t.End != "" {
			end, err := parseScaled(t.End, domain.RateScale, "ladder %q tier %d end", spec.Name, i)
			if err != nil {
				return nil, err
			}
			tier.RangeEnd = &end
		}
		tiers[i] = tier
	}
	return domain.NewTierLadder(spec.Name, tiers)
}

func buildSchedule(specs []ScheduleSpec) (*domain.CommissionSchedule, error) {
	var entries []domain.CommissionScheduleEntry
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if _, dup := seen[spec.ProductType]; dup {
			return nil, domain.NewConfigurationError("schedule for product type %q defined twice", spec.ProductType)
		}
		seen[spec.ProductType] = struct{}{}

		for i, p := range spec.Percentages {
			pct, err := parseScaled(p, domain.RateScale, "schedule %q installment %d", spec.ProductType, i+1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, domain.CommissionScheduleEntry{
				ProductType:      domain.ProductType(spec.ProductType),
				InstallmentIndex: i + 1,
				Percentage:       pct,
			})
		}
	}
	return domain.NewCommissionSchedule(entries)
}

func buildCatalog(specs []ProductCodeSpec, prices map[string]string) (*domain.ProductCatalog, error) {
	codes := make([]domain.ProductCode, len(specs))
	for i, spec := range specs {
		pattern, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeConfigurationInvalid,
				fmt.Sprintf("product code %q pattern", spec.Code), err)
		}
		codes[i] = domain.ProductCode{Code: spec.Code, Pattern: pattern}
	}

	referencePrices := make(map[string]decimal.Decimal, len(prices))
	for code, raw := range prices {
		price, err := parseScaled(raw, domain.MoneyScale, "reference price %q", code)
		if err != nil {
			return nil, err
		}
		referencePrices[code] = price
	}

	return domain.NewProductCatalog(codes, referencePrices)
}

func parseDecimal(raw, format string, args ...interface{}) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.WrapError(domain.ErrorCodeConfigurationInvalid, fmt.Sprintf(format, args...), err)
	}
	return d, nil
}

// parseScaled parses a decimal that must fit scale places, the precision of
// the column it is stored in
func parseScaled(raw string, scale int32, format string, args ...interface{}) (decimal.Decimal, error) {
	d, err := parseDecimal(raw, format, args...)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.Equal(d.Round(scale)) {
		return decimal.Zero, domain.NewConfigurationError("%s: %s has more than %d decimal places",
			fmt.Sprintf(format, args...), raw, scale)
	}
	return d, nil
}
