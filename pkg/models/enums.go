package models

import "strings"

// OccupancyType matches the eligibility matrix occupancy column.
type OccupancyType string

const (
	OccupancyPrimary    OccupancyType = "PRIMARY"
	OccupancySecondHome OccupancyType = "SECOND_HOME"
	OccupancyInvestment OccupancyType = "INVESTMENT"
)

// OccupancyTypes lists all valid occupancy values.
var OccupancyTypes = []OccupancyType{OccupancyPrimary, OccupancySecondHome, OccupancyInvestment}

// ParseOccupancyType normalizes and validates an occupancy value.
func ParseOccupancyType(s string) (OccupancyType, bool) {
	v := OccupancyType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	for _, o := range OccupancyTypes {
		if v == o {
			return o, true
		}
	}
	return "", false
}

// LoanPurposeType matches the eligibility matrix loan purpose column.
type LoanPurposeType string

const (
	PurposePurchase LoanPurposeType = "PURCHASE"
	PurposeRateTerm LoanPurposeType = "RATE_TERM"
	PurposeCashOut  LoanPurposeType = "CASH_OUT"
)

// LoanPurposeTypes lists all valid loan purpose values.
var LoanPurposeTypes = []LoanPurposeType{PurposePurchase, PurposeRateTerm, PurposeCashOut}

// ParseLoanPurposeType normalizes and validates a loan purpose value.
func ParseLoanPurposeType(s string) (LoanPurposeType, bool) {
	v := LoanPurposeType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	for _, p := range LoanPurposeTypes {
		if v == p {
			return p, true
		}
	}
	return "", false
}

// GuidelineCategory classifies guideline content.
type GuidelineCategory string

// GuidelineCategories lists every valid guideline category.
var GuidelineCategories = []GuidelineCategory{
	"LOAN_PURPOSE", "EXCEPTIONS", "PREPAYMENT_PENALTY", "PRODUCT_TYPES",
	"INTEREST_ONLY", "LOAN_AMOUNTS", "OCCUPANCY", "PROPERTY_TYPES",
	"PROPERTY_RESTRICTIONS", "CASH_OUT", "ACREAGE", "APPRAISALS",
	"DECLINING_MARKET", "TRADELINES", "HOUSING_HISTORY", "CREDIT_EVENT_SEASONING",
	"RESERVES", "SELLER_CONCESSIONS", "GIFT_FUNDS", "SUBORDINATE_FINANCING",
	"CITIZENSHIP", "HOMEOWNER_EDUCATION", "INELIGIBLE_STATES", "INELIGIBLE_LOCATIONS",
	"GEOGRAPHIC_RESTRICTIONS", "FIRST_TIME_INVESTOR", "FIRST_TIME_HOMEBUYER",
	"INCOME_DOCUMENTATION", "DTI", "ASSET_UTILIZATION", "MISCELLANEOUS",
}

// ParseGuidelineCategory normalizes and validates a guideline category.
func ParseGuidelineCategory(s string) (GuidelineCategory, bool) {
	v := GuidelineCategory(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	for _, c := range GuidelineCategories {
		if v == c {
			return c, true
		}
	}
	return "", false
}

// ValidOccupancyValues returns the valid occupancy names for error messages.
func ValidOccupancyValues() []string {
	out := make([]string, len(OccupancyTypes))
	for i, o := range OccupancyTypes {
		out[i] = string(o)
	}
	return out
}

// ValidLoanPurposeValues returns the valid loan purpose names for error messages.
func ValidLoanPurposeValues() []string {
	out := make([]string, len(LoanPurposeTypes))
	for i, p := range LoanPurposeTypes {
		out[i] = string(p)
	}
	return out
}

// ValidGuidelineCategoryValues returns the valid category names for error messages.
func ValidGuidelineCategoryValues() []string {
	out := make([]string, len(GuidelineCategories))
	for i, c := range GuidelineCategories {
		out[i] = string(c)
	}
	return out
}
