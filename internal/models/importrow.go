package models

// ScoreDetail pairs an evaluation with the raw score read from a sheet row.
type ScoreDetail struct {
	EvaluationID string  `json:"evaluation_id"`
	Score        float64 `json:"score"`
}

// ImportedRow is the normalized, ephemeral form of one spreadsheet row. It is
// never persisted; the reconciliation orchestrator consumes it.
type ImportedRow struct {
	RowNumber          int              `json:"row_number"`
	Identifier         string           `json:"identifier"`
	OriginalIdentifier string           `json:"original_identifier"`
	FullName           string           `json:"full_name"`
	CenterName         string           `json:"center_name"`
	Email              string           `json:"email"`
	Institution        string           `json:"institution"`
	FinalGrade         float64          `json:"final_grade"`
	SuggestedStatus    EnrollmentStatus `json:"suggested_status"`
	Details            []ScoreDetail    `json:"details"`
	KnownAlias         bool             `json:"known_alias"`
	ChecksumValid      bool             `json:"checksum_valid"`
	NonAttendance      bool             `json:"non_attendance"`
}

// ImportResult aggregates the outcome of one import batch. The reporting
// invariant total = valid + corrected + omitted always holds.
type ImportResult struct {
	NewPeople          int      `json:"new_people"`
	NewEnrollments     int      `json:"new_enrollments"`
	UpdatedEnrollments int      `json:"updated_enrollments"`
	AcceptedValid      int      `json:"accepted_valid"`
	AcceptedCorrected  int      `json:"accepted_corrected"`
	OmittedRows        int      `json:"omitted_rows"`
	TotalRows          int      `json:"total_rows"`
	Notes              []string `json:"notes"`
}
