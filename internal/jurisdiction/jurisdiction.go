// Package jurisdiction classifies a legal matter by the monetary amount a
// client mentions, relative to the small-claims limit.
package jurisdiction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is the closed set of jurisdiction classifications derived from a
// claimed amount.
type Category string

const (
	SmallClaims      Category = "small_claims"
	AboveSmallClaims Category = "above_small_claims"
	Ambiguous        Category = "ambiguous"
)

// SmallClaimsThreshold is the monetary cutoff below which a matter belongs
// in Small Claims Court.
var SmallClaimsThreshold = decimal.NewFromInt(35000)

// A monetary-amount-shaped token: optional currency sign, digits optionally
// grouped by thousands separators, optional two-digit cents.
var amountPattern = regexp.MustCompile(`\$?(\d{1,3}(,\d{3})*|\d+)(\.\d{2})?`)

var amountCleaner = strings.NewReplacer("$", "", ",", "")

// ExtractAmount returns the first monetary-amount-shaped token found in
// input. Only the first match counts even when later mentions are larger.
// Returns nil when no amount is present.
func ExtractAmount(input string) *decimal.Decimal {
	match := amountPattern.FindString(input)
	if match == "" {
		return nil
	}
	amount, err := decimal.NewFromString(amountCleaner.Replace(match))
	if err != nil {
		return nil
	}
	return &amount
}

// Classify maps an optional claimed amount to its jurisdiction category.
// A missing amount is Ambiguous.
func Classify(amount *decimal.Decimal) Category {
	if amount == nil {
		return Ambiguous
	}
	if amount.LessThan(SmallClaimsThreshold) {
		return SmallClaims
	}
	return AboveSmallClaims
}

// ClassifyText extracts an amount from free text and classifies it.
func ClassifyText(input string) Category {
	return Classify(ExtractAmount(input))
}
