// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// IssueSeverity grades a quality finding.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityMajor    IssueSeverity = "major"
	SeverityMinor    IssueSeverity = "minor"
)

// QualityDimension names one of the six fixed review dimensions.
type QualityDimension string

const (
	DimensionAccuracy     QualityDimension = "accuracy"
	DimensionCompleteness QualityDimension = "completeness"
	DimensionBalance      QualityDimension = "balance"
	DimensionAttribution  QualityDimension = "attribution"
	DimensionClarity      QualityDimension = "clarity"
	DimensionMethodology  QualityDimension = "methodology"
)

// DimensionWeights is the fixed weighting of the six review dimensions.
// The weights sum to 1.0, so the overall score stays within [0,100].
var DimensionWeights = map[QualityDimension]float64{
	DimensionAccuracy:     0.25,
	DimensionCompleteness: 0.20,
	DimensionBalance:      0.15,
	DimensionAttribution:  0.20,
	DimensionClarity:      0.10,
	DimensionMethodology:  0.10,
}

// QualityIssue is one finding from a dimension check.
type QualityIssue struct {
	Dimension   QualityDimension `json:"dimension" yaml:"dimension"`
	Severity    IssueSeverity    `json:"severity" yaml:"severity"`
	Description string           `json:"description" yaml:"description"`
	Suggestion  string           `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// QualityScore is a weighted 0-100 score for one dimension.
type QualityScore struct {
	Dimension QualityDimension `json:"dimension" yaml:"dimension"`
	Score     float64          `json:"score" yaml:"score"`
	Weight    float64          `json:"weight" yaml:"weight"`
	Issues    []QualityIssue   `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// QualityReport is the quality reviewer's payload. Approval requires zero
// critical issues, fewer than three major issues, and an overall score of
// at least 60.
type QualityReport struct {
	Scores       []QualityScore `json:"scores" yaml:"scores"`
	OverallScore float64        `json:"overall_score" yaml:"overall_score"`
	Approved     bool           `json:"approved" yaml:"approved"`
}

func (*QualityReport) ProducedBy() AgentType { return AgentQualityReviewer }

// Issues returns all findings across dimensions.
func (r *QualityReport) Issues() []QualityIssue {
	var out []QualityIssue
	for _, s := range r.Scores {
		out = append(out, s.Issues...)
	}
	return out
}

// CountBySeverity tallies findings at the given severity.
func (r *QualityReport) CountBySeverity(sev IssueSeverity) int {
	n := 0
	for _, issue := range r.Issues() {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}
