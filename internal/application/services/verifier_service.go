package services

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/endemicgrants/grant-discovery/internal/core/domain/grant"
	"github.com/endemicgrants/grant-discovery/internal/core/ports"
)

// deadlineFormats are tried in order when parsing a candidate's deadline.
var deadlineFormats = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

const (
	deadlineWarningDays  = 7
	minDescriptionLength = 50
	maxDescriptionLength = 10000
)

// VerifierService checks candidates for the failure modes that used to let
// bad entries into the workspace: missing fields, malformed URLs, expired
// deadlines, and names matching known scam patterns.
type VerifierService struct {
	profile *Profile
	logger  *logrus.Logger
	now     func() time.Time
}

func NewVerifierService(profile *Profile, logger *logrus.Logger) *VerifierService {
	if profile == nil {
		profile = DefaultProfile()
	}
	return &VerifierService{
		profile: profile,
		logger:  logger,
		now:     time.Now,
	}
}

// VerifyCandidate runs every check against the candidate. Errors mark the
// result invalid; warnings and suggestions are advisory. The score starts at
// 10 and drops 3 per error and 1 per warning, floored at 0.
func (s *VerifierService) VerifyCandidate(c *grant.Candidate) *grant.VerificationResult {
	result := &grant.VerificationResult{Valid: true}

	if c == nil {
		result.AddError("candidate cannot be nil")
		result.Score = 0
		return result
	}

	s.verifyRequiredFields(c, result)
	if result.Valid {
		s.verifyOrganization(c.Organization, result)
		s.verifyURL(c.URL, result)
		s.checkRedFlags(c.Title, result)
		if c.Deadline != "" {
			s.verifyDeadline(c.Deadline, result)
		}
		s.verifyDescription(c.Description, result)
	}

	result.Score = 10.0 - 3.0*float64(len(result.Errors)) - float64(len(result.Warnings))
	if result.Score < 0 {
		result.Score = 0
	}

	s.logger.WithFields(logrus.Fields{
		"url":   c.URL,
		"valid": result.Valid,
		"score": result.Score,
	}).Debug("verified grant candidate")

	return result
}

func (s *VerifierService) verifyRequiredFields(c *grant.Candidate, result *grant.VerificationResult) {
	var missing []string
	if strings.TrimSpace(c.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(c.Organization) == "" {
		missing = append(missing, "organization")
	}
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if len(missing) > 0 {
		result.AddError(fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}
}

func (s *VerifierService) verifyOrganization(org string, result *grant.VerificationResult) {
	for _, known := range s.profile.KnownOrganizations {
		if strings.EqualFold(known, org) {
			return
		}
	}
	result.AddWarning(fmt.Sprintf("organization %q not in verified funder list", org))

	known := append([]string(nil), s.profile.KnownOrganizations...)
	sort.Strings(known)
	result.AddSuggestion("consider one of the verified funders: " + strings.Join(known, ", "))
}

func (s *VerifierService) verifyURL(rawURL string, result *grant.VerificationResult) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		result.AddError(fmt.Sprintf("grant URL %q is not a valid absolute URL", rawURL))
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		result.AddError(fmt.Sprintf("grant URL has unsupported scheme %q", parsed.Scheme))
	}
}

func (s *VerifierService) checkRedFlags(title string, result *grant.VerificationResult) {
	lower := strings.ToLower(title)
	for _, term := range s.profile.RedFlagTerms {
		if strings.Contains(lower, term) {
			result.AddError(fmt.Sprintf("grant name matches red flag term: %q", term))
			result.AddSuggestion("use exact program names from official sources only")
		}
	}
}

func (s *VerifierService) verifyDeadline(deadline string, result *grant.VerificationResult) {
	parsed, ok := ParseDeadline(deadline)
	if !ok {
		result.AddWarning(fmt.Sprintf("cannot parse deadline format: %q", deadline))
		result.AddSuggestion("supported formats: " + strings.Join(deadlineFormats, ", "))
		return
	}

	now := s.now()
	if parsed.Before(now) {
		result.AddError(fmt.Sprintf("deadline %s is in the past", deadline))
	} else if parsed.Before(now.AddDate(0, 0, deadlineWarningDays)) {
		result.AddWarning(fmt.Sprintf("deadline %s is less than %d days away", deadline, deadlineWarningDays))
	}
}

func (s *VerifierService) verifyDescription(description string, result *grant.VerificationResult) {
	if description == "" {
		return
	}
	if len(description) < minDescriptionLength {
		result.AddWarning(fmt.Sprintf("description is too short (%d chars, minimum %d)", len(description), minDescriptionLength))
	} else if len(description) > maxDescriptionLength {
		result.AddWarning(fmt.Sprintf("description is too long (%d chars, maximum %d)", len(description), maxDescriptionLength))
	}
}

// ParseDeadline tries each supported deadline format in order.
func ParseDeadline(deadline string) (time.Time, bool) {
	for _, format := range deadlineFormats {
		if t, err := time.Parse(format, strings.TrimSpace(deadline)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var _ ports.Verifier = (*VerifierService)(nil)
