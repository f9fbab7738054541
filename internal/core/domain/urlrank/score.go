package urlrank

// Category classifies a candidate URL by the kind of site it points at.
type Category string

const (
	CategoryGovernment          Category = "government"
	CategoryFoundation          Category = "foundation"
	CategoryAcademic            Category = "academic"
	CategoryGrantDatabase       Category = "grant_database"
	CategoryGrantOpportunity    Category = "grant_opportunity"
	CategoryResearchInstitution Category = "research_institution"
	CategoryGeneral             Category = "general"
)

// Score is the ranking record for one candidate URL. Relevance and quality
// are each clamped to [0,10]; Priority is always 0.6*Relevance + 0.4*Quality.
type Score struct {
	URL            string   `json:"url"`
	RelevanceScore float64  `json:"relevance_score"`
	QualityScore   float64  `json:"quality_score"`
	PriorityScore  float64  `json:"priority_score"`
	Reasoning      []string `json:"reasoning"`
	Category       Category `json:"category"`
}

// RelevanceWeight and QualityWeight blend the two component scores into the
// priority score.
const (
	RelevanceWeight = 0.6
	QualityWeight   = 0.4
)
