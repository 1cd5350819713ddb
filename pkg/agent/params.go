package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lendwise/underwriter/pkg/models"
)

// Deterministic scenario parameter extraction. Turns like "1.5m loan, 740
// fico, 75% ltv, primary purchase" are parsed without a model call so routing
// stays reproducible and testable.

var (
	ficoRe = regexp.MustCompile(`(?i)\b(?:fico|credit\s+score)(?:\s+score)?\s*(?:of|is|:)?\s*(\d{3})\b|\b(\d{3})\s*(?:fico|credit\s+score)\b`)
	ltvRe  = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d+)?)\s*%?\s*ltv\b|\bltv\s*(?:of|is|:)?\s*(\d{1,3}(?:\.\d+)?)\s*%?`)

	amountSuffixRe = regexp.MustCompile(`(?i)\$?\s*(\d+(?:\.\d+)?)\s*(mm|m|million|k|thousand)\b`)
	amountDollarRe = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)`)
	amountPlainRe  = regexp.MustCompile(`\b(\d{6,}|\d{1,3}(?:,\d{3}){1,})\b`)
)

// ExtractScenarioParameters pulls borrower scenario parameters out of a
// user turn. Absent parameters are simply missing from the result; values
// already collected in prior turns are never cleared by an absence here.
func ExtractScenarioParameters(text string) map[string]string {
	params := make(map[string]string)

	if m := ficoRe.FindStringSubmatch(text); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if n, err := strconv.Atoi(raw); err == nil && n >= 300 && n <= 850 {
			params[models.ParamFicoScore] = raw
		}
	}

	if m := ltvRe.FindStringSubmatch(text); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && v <= 100 {
			params[models.ParamLTV] = raw
		}
	}

	if amount, ok := extractLoanAmount(text); ok {
		params[models.ParamLoanAmount] = strconv.FormatFloat(amount, 'f', -1, 64)
	}

	if occ, ok := extractOccupancy(text); ok {
		params[models.ParamOccupancy] = string(occ)
	}
	if purpose, ok := extractLoanPurpose(text); ok {
		params[models.ParamLoanPurpose] = string(purpose)
	}

	return params
}

func extractLoanAmount(text string) (float64, bool) {
	if m := amountSuffixRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			switch strings.ToLower(m[2]) {
			case "m", "mm", "million":
				return v * 1_000_000, true
			case "k", "thousand":
				return v * 1_000, true
			}
		}
	}
	for _, re := range []*regexp.Regexp{amountDollarRe, amountPlainRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			raw := strings.ReplaceAll(m[1], ",", "")
			if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 1000 {
				return v, true
			}
		}
	}
	return 0, false
}

func extractOccupancy(text string) (models.OccupancyType, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "second home") || strings.Contains(lower, "2nd home") ||
		strings.Contains(lower, "vacation home"):
		return models.OccupancySecondHome, true
	case strings.Contains(lower, "investment") || strings.Contains(lower, "investor") ||
		strings.Contains(lower, "rental"):
		return models.OccupancyInvestment, true
	case strings.Contains(lower, "primary") || strings.Contains(lower, "owner occupied") ||
		strings.Contains(lower, "owner-occupied"):
		return models.OccupancyPrimary, true
	}
	return "", false
}

func extractLoanPurpose(text string) (models.LoanPurposeType, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "cash out") || strings.Contains(lower, "cash-out") ||
		strings.Contains(lower, "cashout"):
		return models.PurposeCashOut, true
	case strings.Contains(lower, "rate and term") || strings.Contains(lower, "rate/term") ||
		strings.Contains(lower, "rate-term") || strings.Contains(lower, "rate term") ||
		strings.Contains(lower, "refinance") || strings.Contains(lower, "refi"):
		return models.PurposeRateTerm, true
	case strings.Contains(lower, "purchase") || strings.Contains(lower, "buying") ||
		strings.Contains(lower, " buy "):
		return models.PurposePurchase, true
	}
	return "", false
}

// ScenarioCriteriaFromCollected converts a complete collected parameter map
// into typed matching criteria. It fails if any value does not parse, which
// only happens if the state blob was tampered with.
func ScenarioCriteriaFromCollected(collected map[string]string) (fico int, amount, ltv float64, occ models.OccupancyType, purpose models.LoanPurposeType, err error) {
	fico, err = strconv.Atoi(collected[models.ParamFicoScore])
	if err != nil {
		return 0, 0, 0, "", "", fmt.Errorf("invalid fico_score %q", collected[models.ParamFicoScore])
	}
	amount, err = strconv.ParseFloat(collected[models.ParamLoanAmount], 64)
	if err != nil {
		return 0, 0, 0, "", "", fmt.Errorf("invalid loan_amount %q", collected[models.ParamLoanAmount])
	}
	ltv, err = strconv.ParseFloat(collected[models.ParamLTV], 64)
	if err != nil {
		return 0, 0, 0, "", "", fmt.Errorf("invalid ltv %q", collected[models.ParamLTV])
	}
	var ok bool
	occ, ok = models.ParseOccupancyType(collected[models.ParamOccupancy])
	if !ok {
		return 0, 0, 0, "", "", fmt.Errorf("invalid occupancy %q", collected[models.ParamOccupancy])
	}
	purpose, ok = models.ParseLoanPurposeType(collected[models.ParamLoanPurpose])
	if !ok {
		return 0, 0, 0, "", "", fmt.Errorf("invalid loan_purpose %q", collected[models.ParamLoanPurpose])
	}
	return fico, amount, ltv, occ, purpose, nil
}
