package domain

import (
	"bytes"
	"encoding/json"
)

// JobMode selects the resume pipeline variant. Parse jobs start from a file
// URL; score jobs start from parsed data persisted upstream.
type JobMode string

const (
	ModeParse JobMode = "parse"
	ModeScore JobMode = "score"
)

// StringID is an identifier the backend serializes as either a JSON string or
// a number. It always marshals back out as a string.
type StringID string

func (s *StringID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = StringID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*s = StringID(n.String())
	return nil
}

func (s StringID) String() string { return string(s) }

// ResumeJob is one parse-and-score work item popped from the resume queue.
// Requirements and Criteria are pointers/slices so a missing field (drop the
// job) can be told apart from a present-but-empty one (deliver an
// invalid_job_data result).
type ResumeJob struct {
	QueueJobID    StringID `json:"queueJobId" validate:"required"`
	ResumeID      int64    `json:"resumeId" validate:"required"`
	ApplicationID int64    `json:"applicationId"`
	JobID         int64    `json:"jobId" validate:"required"`
	CampaignID    int64    `json:"campaignId"`
	CompanyID     int64    `json:"companyId"`

	Mode       JobMode      `json:"mode" validate:"oneof=parse score"`
	FileURL    string       `json:"fileUrl" validate:"required_if=Mode parse"`
	ParsedData ParsedResume `json:"parsedData" validate:"required_if=Mode score"`

	Requirements *string     `json:"requirements" validate:"required"`
	Criteria     []Criterion `json:"criteria" validate:"required"`

	JobTitle        string          `json:"jobTitle"`
	Level           string          `json:"level"`
	Specialization  string          `json:"specialization"`
	Skills          string          `json:"skills"`
	EmploymentTypes json.RawMessage `json:"employmentTypes"`
	Languages       json.RawMessage `json:"languages"`
}

// Normalize applies the defaults older producers omit. Must run before
// validation so mode-conditional rules see the effective mode.
func (j *ResumeJob) Normalize() {
	if j.Mode == "" {
		j.Mode = ModeParse
	}
}

// RequirementsText returns the requirements body, empty when the field was
// absent from the payload.
func (j ResumeJob) RequirementsText() string {
	if j.Requirements == nil {
		return ""
	}
	return *j.Requirements
}

// Context collects the descriptive job fields embedded in scoring and
// title-match prompts.
func (j ResumeJob) Context() JobContext {
	return JobContext{
		Title:           j.JobTitle,
		Level:           j.Level,
		Specialization:  j.Specialization,
		Skills:          j.Skills,
		EmploymentTypes: rawString(j.EmploymentTypes),
		Languages:       rawString(j.Languages),
	}
}

// JobContext is the free-text job description block fed to prompts. All
// fields are optional.
type JobContext struct {
	Title           string
	Level           string
	Specialization  string
	Skills          string
	EmploymentTypes string
	Languages       string
}

// ComparisonJob asks for a ranked cross-candidate analysis.
type ComparisonJob struct {
	ComparisonID int64    `json:"comparisonId" validate:"required"`
	QueueJobID   StringID `json:"queueJobId" validate:"required"`
	CompanyID    int64    `json:"companyId"`
	CampaignID   int64    `json:"campaignId"`
	JobID        int64    `json:"jobId"`

	JobTitle       string      `json:"jobTitle"`
	Level          string      `json:"level"`
	Specialization string      `json:"specialization"`
	Skills         string      `json:"skills"`
	Requirements   string      `json:"requirements"`
	Criteria       []Criterion `json:"criteria"`

	Candidates []ComparisonCandidate `json:"candidates" validate:"required"`
}

// ComparisonCandidate carries one already-scored candidate into a comparison.
type ComparisonCandidate struct {
	ApplicationID int64        `json:"applicationId"`
	ParsedData    ParsedResume `json:"parsedData"`
	MatchSkills   string       `json:"matchSkills"`
	MissingSkills string       `json:"missingSkills"`
	TotalScore    float64      `json:"totalScore"`
}

// rawString renders an untyped JSON fragment for prompt embedding: plain
// strings are unquoted, anything else is kept in its JSON form.
func rawString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
