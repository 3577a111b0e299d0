package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/emilydias-boop/mcf-insight-hub/internal/config"
)

func main() {
	rulesPath := flag.String("rules", os.Getenv("RULES_PATH"), "rule file to validate (default: embedded rules)")
	ladder := flag.String("ladder", "", "ladder to resolve -achieved against")
	achieved := flag.String("achieved", "", "achievement percentage to resolve, e.g. 92.5")
	flag.Parse()

	if err := run(os.Stdout, *rulesPath, *ladder, *achieved); err != nil {
		fmt.Fprintf(os.Stderr, "rulecheck: %v\n", err)
		os.Exit(1)
	}
}

// run validates the rule file, prints its contents and optionally resolves
// one achievement against a ladder
func run(w io.Writer, rulesPath, ladderName, achieved string) error {
	rules, err := config.LoadRules(rulesPath)
	if err != nil {
		return err
	}

	source := rulesPath
	if source == "" {
		source = "embedded defaults"
	}
	fmt.Fprintf(w, "rules: %s OK\n", source)

	fmt.Fprintln(w, "ladders:")
	for _, name := range rules.LadderNames() {
		l, _ := rules.Ladder(name)
		fmt.Fprintf(w, "  %s\n", name)
		for _, tier := range l.Tiers() {
			end := "open"
			if tier.RangeEnd != nil {
				end = tier.RangeEnd.String()
			}
			suffix := ""
			if tier.Terminal {
				suffix = " (terminal)"
			}
			fmt.Fprintf(w, "    [%s, %s) x%s%s\n", tier.RangeStart, end, tier.Multiplier, suffix)
		}
	}

	fmt.Fprintln(w, "schedules:")
	for _, pt := range rules.Schedule.ProductTypes() {
		horizon, _ := rules.Schedule.Horizon(pt)
		fmt.Fprintf(w, "  %s: %d installments\n", pt, horizon)
	}

	fmt.Fprintf(w, "product codes: %s\n", strings.Join(rules.Catalog.Codes(), ", "))

	if ladderName == "" && achieved == "" {
		return nil
	}
	if ladderName == "" || achieved == "" {
		return fmt.Errorf("-ladder and -achieved must be given together")
	}

	pct, err := decimal.NewFromString(achieved)
	if err != nil {
		return fmt.Errorf("invalid -achieved %q: %w", achieved, err)
	}
	l, err := rules.Ladder(ladderName)
	if err != nil {
		return err
	}
	multiplier, err := l.Resolve(pct)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s at %s%%: multiplier %s\n", ladderName, pct, multiplier)
	return nil
}
