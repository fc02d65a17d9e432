// Package rules classifies normalized transactions into tax treatments via
// an ordered, data-driven rule list with first-match-wins semantics.
// Jurisdictions and exchanges can extend the list without touching the
// evaluation engine.
package rules

import (
	"sort"

	"github.com/tallyworks/crypto-cgt-cli/tax"
)

// Rule pairs a predicate with the treatment it produces. Rules are
// evaluated in ascending Priority order; the first match wins.
type Rule struct {
	Name     string
	Priority int
	Matches  func(tx tax.Transaction, j tax.Jurisdiction) bool
	Apply    func(tx tax.Transaction, j tax.Jurisdiction) tax.TaxTreatment
}

// Classifier evaluates an ordered rule list. Classification is pure and
// deterministic; the classifier holds no mutable state.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from the given rules, sorted by
// priority. With no rules supplied the default rule set is used.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Classifier{rules: sorted}
}

// Classify maps a transaction to its tax treatment. It never errors: the
// fallback rule catches everything with a low-confidence NON_TAXABLE
// treatment rather than fabricating tax liability.
func (c *Classifier) Classify(tx tax.Transaction, j tax.Jurisdiction) tax.TaxTreatment {
	for _, r := range c.rules {
		if r.Matches(tx, j) {
			treatment := r.Apply(tx, j)
			treatment.AppliedRules = append(treatment.AppliedRules, r.Name)
			return treatment
		}
	}
	// DefaultRules always ends in a catch-all, so this is unreachable with
	// the stock rule set.
	return tax.TaxTreatment{
		EventType:      tax.NonTaxable,
		Classification: "unclassified",
		LowConfidence:  true,
		Reason:         "no rule matched",
	}
}
