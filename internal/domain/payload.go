package domain

// Invalid-result codes reported to the backend in the payload's error field.
const (
	CodeInvalidResumeData      = "invalid_resume_data"
	CodeInvalidJobData         = "invalid_job_data"
	CodeJobTitleNotMatched     = "job_title_not_matched"
	CodeNotAResume             = "not_a_resume"
	CodeInsufficientCandidates = "insufficient_candidates"
	CodeInvalidData            = "invalid_data"
	CodeProcessingFailed       = "processing_failed"
)

// CandidateInfo is the contact block the backend persists alongside scores.
// Fields stay null when the resume did not yield them.
type CandidateInfo struct {
	FullName      *string `json:"fullName"`
	Email         *string `json:"email"`
	PhoneNumber   *string `json:"phoneNumber"`
	MatchSkills   *string `json:"matchSkills"`
	MissingSkills *string `json:"missingSkills"`
}

// ExtractCandidateInfo pulls the contact fields from a parsed resume,
// tolerating the key variants older parser revisions produced. The skill
// comparison strings come from the scorer.
func ExtractCandidateInfo(p ParsedResume, score ScoreResult) CandidateInfo {
	return CandidateInfo{
		FullName:      nullableString(p.FullName()),
		Email:         nullableString(p.Email()),
		PhoneNumber:   nullableString(p.Phone()),
		MatchSkills:   score.MatchSkills,
		MissingSkills: score.MissingSkills,
	}
}

// ResultPayload is the outbound callback record. One struct covers the four
// delivered shapes (resume success, resume invalid, comparison success,
// comparison error); fields outside the active shape stay zero and are
// omitted from the wire form. Constructed once per attempt and sent once.
type ResultPayload struct {
	QueueJobID    string `json:"queueJobId"`
	ResumeID      int64  `json:"resumeId,omitempty"`
	ApplicationID int64  `json:"applicationId,omitempty"`
	ComparisonID  int64  `json:"comparisonId,omitempty"`
	JobID         int64  `json:"jobId"`
	CampaignID    int64  `json:"campaignId,omitempty"`
	CompanyID     int64  `json:"companyId,omitempty"`

	TotalResumeScore *float64          `json:"totalResumeScore,omitempty"`
	AIExplanation    string            `json:"AIExplanation,omitempty"`
	AIScoreDetail    []ScoreItem       `json:"AIScoreDetail,omitempty"`
	RequireSkills    string            `json:"requireSkills,omitempty"`
	CandidateInfo    *CandidateInfo    `json:"candidateInfo,omitempty"`
	RawJSON          ParsedResume      `json:"rawJson,omitempty"`
	ResultJSON       *ComparisonResult `json:"resultJson,omitempty"`

	ErrorCode string `json:"error,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// IsError reports whether the payload is an invalid-data short circuit rather
// than a scored result.
func (p ResultPayload) IsError() bool { return p.ErrorCode != "" }

// NewResumeResult builds the success payload for a processed resume job. Raw
// parsed JSON rides along only for fresh parses; score-mode callers pass nil.
func NewResumeResult(job ResumeJob, score ScoreResult, info CandidateInfo, raw ParsedResume) ResultPayload {
	total := score.TotalScore
	return ResultPayload{
		QueueJobID:       job.QueueJobID.String(),
		ResumeID:         job.ResumeID,
		ApplicationID:    job.ApplicationID,
		JobID:            job.JobID,
		CampaignID:       job.CampaignID,
		CompanyID:        job.CompanyID,
		TotalResumeScore: &total,
		AIExplanation:    score.AIExplanation,
		AIScoreDetail:    score.Items,
		RequireSkills:    job.Skills,
		CandidateInfo:    &info,
		RawJSON:          raw,
	}
}

// NewResumeError builds the short-circuit payload delivered when a resume job
// is classified invalid rather than failed.
func NewResumeError(job ResumeJob, code, reason string) ResultPayload {
	return ResultPayload{
		QueueJobID:    job.QueueJobID.String(),
		ResumeID:      job.ResumeID,
		ApplicationID: job.ApplicationID,
		JobID:         job.JobID,
		CampaignID:    job.CampaignID,
		CompanyID:     job.CompanyID,
		ErrorCode:     code,
		Reason:        reason,
	}
}

// NewComparisonResult wraps a finished cross-candidate analysis.
func NewComparisonResult(job ComparisonJob, result ComparisonResult) ResultPayload {
	return ResultPayload{
		QueueJobID:   job.QueueJobID.String(),
		ComparisonID: job.ComparisonID,
		JobID:        job.JobID,
		CampaignID:   job.CampaignID,
		CompanyID:    job.CompanyID,
		ResultJSON:   &result,
	}
}

// NewComparisonError builds the comparison rejection payload.
func NewComparisonError(job ComparisonJob, code, reason string) ResultPayload {
	return ResultPayload{
		QueueJobID:   job.QueueJobID.String(),
		ComparisonID: job.ComparisonID,
		JobID:        job.JobID,
		CampaignID:   job.CampaignID,
		CompanyID:    job.CompanyID,
		ErrorCode:    code,
		Reason:       reason,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
