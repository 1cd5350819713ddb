package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOccupancyType(t *testing.T) {
	tests := []struct {
		in   string
		want OccupancyType
		ok   bool
	}{
		{"PRIMARY", OccupancyPrimary, true},
		{"primary", OccupancyPrimary, true},
		{"second home", OccupancySecondHome, true},
		{"Second_Home", OccupancySecondHome, true},
		{"INVESTMENT", OccupancyInvestment, true},
		{"condo", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseOccupancyType(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseLoanPurposeType(t *testing.T) {
	got, ok := ParseLoanPurposeType("rate term")
	assert.True(t, ok)
	assert.Equal(t, PurposeRateTerm, got)

	_, ok = ParseLoanPurposeType("HELOC")
	assert.False(t, ok)
}

func TestParseGuidelineCategory(t *testing.T) {
	got, ok := ParseGuidelineCategory("income documentation")
	assert.True(t, ok)
	assert.Equal(t, GuidelineCategory("INCOME_DOCUMENTATION"), got)

	_, ok = ParseGuidelineCategory("UNDERWATER_BASKET_WEAVING")
	assert.False(t, ok)
}

func TestValidValueListsStable(t *testing.T) {
	assert.Equal(t, []string{"PRIMARY", "SECOND_HOME", "INVESTMENT"}, ValidOccupancyValues())
	assert.Equal(t, []string{"PURCHASE", "RATE_TERM", "CASH_OUT"}, ValidLoanPurposeValues())
	assert.Len(t, ValidGuidelineCategoryValues(), 31)
}
