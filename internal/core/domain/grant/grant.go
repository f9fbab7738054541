package grant

import (
	"time"

	"github.com/google/uuid"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/urlrank"
)

// Status tracks a discovered grant through the workspace.
type Status string

const (
	StatusDiscovered Status = "discovered"
	StatusVerified   Status = "verified"
	StatusRejected   Status = "rejected"
	StatusArchived   Status = "archived"
)

// Grant is one funding opportunity published into the workspace database.
type Grant struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Title         string           `json:"title" db:"title"`
	Organization  string           `json:"organization" db:"organization"`
	URL           string           `json:"url" db:"url"`
	Description   string           `json:"description" db:"description"`
	Category      urlrank.Category `json:"category" db:"category"`
	PriorityScore float64          `json:"priority_score" db:"priority_score"`
	SourceURL     string           `json:"source_url" db:"source_url"`
	Deadline      *time.Time       `json:"deadline,omitempty" db:"deadline"`
	Status        Status           `json:"status" db:"status"`
	DiscoveredAt  time.Time        `json:"discovered_at" db:"discovered_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// Candidate is a grant opportunity extracted from a scraped page, before
// verification and publishing.
type Candidate struct {
	Title         string           `json:"title"`
	Organization  string           `json:"organization"`
	URL           string           `json:"url"`
	Description   string           `json:"description"`
	Category      urlrank.Category `json:"category"`
	PriorityScore float64          `json:"priority_score"`
	SourceURL     string           `json:"source_url"`
	Deadline      string           `json:"deadline,omitempty"`
}

// VerificationResult collects the findings of verifying one candidate.
type VerificationResult struct {
	Valid       bool     `json:"valid"`
	Score       float64  `json:"score"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// AddError records a verification failure and marks the result invalid.
func (r *VerificationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// AddWarning records a non-fatal finding.
func (r *VerificationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddSuggestion records an improvement hint.
func (r *VerificationResult) AddSuggestion(msg string) {
	r.Suggestions = append(r.Suggestions, msg)
}

// ListFilter narrows grant listings.
type ListFilter struct {
	Status   *Status           `json:"status,omitempty"`
	Category *urlrank.Category `json:"category,omitempty"`
	MinScore float64           `json:"min_score,omitempty"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}
