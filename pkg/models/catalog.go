package models

// Lender is a lending institution in the reference catalog.
type Lender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoanProgram is one loan product offered by a lender.
type LoanProgram struct {
	ID             string   `json:"id"`
	LenderID       string   `json:"lender_id"`
	Name           string   `json:"name"`
	ProgramCode    *string  `json:"program_code,omitempty"`
	Description    *string  `json:"description,omitempty"`
	SourceDocument *string  `json:"source_document,omitempty"`
	MinLoanAmount  *float64 `json:"min_loan_amount,omitempty"`
	MaxLoanAmount  *float64 `json:"max_loan_amount,omitempty"`
}

// Guideline is one categorized underwriting rule for a program.
type Guideline struct {
	ID              string            `json:"id"`
	LoanProgramID   string            `json:"loan_program_id"`
	Category        GuidelineCategory `json:"category"`
	Content         string            `json:"content"`
	SourceReference *string           `json:"source_reference,omitempty"`
}

// EligibilityMatrixRule is one row of a program's eligibility matrix.
// Input columns bound the borrower scenario; output columns are the
// resulting max LTV and reserve requirement.
type EligibilityMatrixRule struct {
	ID             string          `json:"id"`
	LoanProgramID  string          `json:"loan_program_id"`
	MinLoanAmount  float64         `json:"min_loan_amount"`
	MaxLoanAmount  float64         `json:"max_loan_amount"`
	MinFicoScore   int             `json:"min_fico_score"`
	MaxFicoScore   *int            `json:"max_fico_score,omitempty"`
	OccupancyType  OccupancyType   `json:"occupancy_type"`
	LoanPurpose    LoanPurposeType `json:"loan_purpose"`
	DSCRValue      *string         `json:"dscr_value,omitempty"`
	MaxLTV         float64         `json:"max_ltv"`
	ReservesMonths *int            `json:"reserves_months,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
}

// ProgramMatch pairs a program with the matrix rule that satisfied a
// borrower scenario, for the scenario-matching tool.
type ProgramMatch struct {
	Program    LoanProgram           `json:"program"`
	LenderName string                `json:"lender_name"`
	Rule       EligibilityMatrixRule `json:"rule"`
}

// DocumentChunk is one retrieved slice of a source guideline document.
type DocumentChunk struct {
	ID         string  `json:"id"`
	SourcePath string  `json:"source_path"`
	PageNumber int     `json:"page_number"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
}
