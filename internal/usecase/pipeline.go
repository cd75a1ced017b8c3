package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/fetch"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
)

// Pipeline chains the per-job stages: acquire the file, extract its text,
// parse, validate, match the title, and score. Domain rejections (not a
// resume, title mismatch, unusable input) become deliverable error payloads;
// only infrastructure and AI failures surface as errors for the caller to
// retry.
type Pipeline struct {
	fetcher   domain.FileFetcher
	extractor domain.TextExtractor

	parser     *Parser
	validator  *Validator
	matcher    *TitleMatcher
	scorer     *Scorer
	comparator *Comparator

	drift *observability.ScoreDriftMonitor
}

// NewPipeline wires the pipeline stages on top of the shared AI gateway.
func NewPipeline(fetcher domain.FileFetcher, extractor domain.TextExtractor, gen domain.TextGenerator) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		extractor:  extractor,
		parser:     NewParser(gen),
		validator:  NewValidator(gen),
		matcher:    NewTitleMatcher(gen),
		scorer:     NewScorer(gen),
		comparator: NewComparator(gen),
	}
}

// WithDriftMonitor attaches a score drift monitor. Safe to skip.
func (p *Pipeline) WithDriftMonitor(m *observability.ScoreDriftMonitor) *Pipeline {
	p.drift = m
	return p
}

// ProcessResumeJob runs one resume job to a result payload. A nil error means
// the payload (success or domain rejection) is ready for delivery; a non-nil
// error means a stage failed and the job may be retried.
func (p *Pipeline) ProcessResumeJob(ctx domain.Context, job domain.ResumeJob) (domain.ResultPayload, error) {
	log := observability.LoggerFromContext(ctx)

	if strings.TrimSpace(job.RequirementsText()) == "" {
		log.Warn("job has empty requirements")
		return domain.NewResumeError(job, domain.CodeInvalidJobData, "Job requirements are empty"), nil
	}
	if len(job.Criteria) == 0 {
		log.Warn("job has empty criteria")
		return domain.NewResumeError(job, domain.CodeInvalidJobData, "Job criteria are empty"), nil
	}

	if job.Mode == domain.ModeScore {
		return p.scoreParsed(ctx, job)
	}
	return p.parseAndScore(ctx, job)
}

// parseAndScore is the full path for mode=parse jobs: the resume exists only
// as a file URL and must be fetched, extracted, and parsed first.
func (p *Pipeline) parseAndScore(ctx domain.Context, job domain.ResumeJob) (domain.ResultPayload, error) {
	log := observability.LoggerFromContext(ctx)

	path, cleanup, err := p.fetcher.Fetch(ctx, job.FileURL)
	if err != nil {
		return domain.ResultPayload{}, fmt.Errorf("op=usecase.parseAndScore fetch: %w", err)
	}
	if cleanup {
		defer fetch.Cleanup(path)
	}

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return domain.ResultPayload{}, fmt.Errorf("op=usecase.parseAndScore extract: %w", err)
	}
	log.Info("resume text extracted", slog.Int("chars", utf8.RuneCountInString(text)))

	parsed, err := p.parser.Parse(ctx, text)
	if err != nil {
		return domain.ResultPayload{}, fmt.Errorf("op=usecase.parseAndScore parse: %w", err)
	}

	if !p.validator.LooksLikeResume(ctx, parsed, text) {
		log.Info("document rejected, not a resume")
		return domain.NewResumeError(job, domain.CodeNotAResume, "The uploaded document does not appear to be a resume"), nil
	}

	if payload, rejected := p.matchTitle(ctx, job, parsed); rejected {
		return payload, nil
	}

	score, err := p.scorer.Score(ctx, parsed, job.RequirementsText(), job.Criteria, job.Context())
	if err != nil {
		return domain.ResultPayload{}, fmt.Errorf("op=usecase.parseAndScore score: %w", err)
	}
	p.recordScore(score.TotalScore)

	log.Info("resume scored",
		slog.Float64("total_score", score.TotalScore), slog.Int("criteria", len(score.Items)))
	info := domain.ExtractCandidateInfo(parsed, score)
	return domain.NewResumeResult(job, score, info, parsed), nil
}

// scoreParsed is the short path for mode=score jobs: parsed data persisted
// upstream is revalidated and rescored without touching the original file.
// The success payload carries no rawJson since nothing was re-parsed.
func (p *Pipeline) scoreParsed(ctx domain.Context, job domain.ResumeJob) (domain.ResultPayload, error) {
	log := observability.LoggerFromContext(ctx)

	parsed := job.ParsedData.EnsureDefaults()
	if !p.validator.LooksLikeResume(ctx, parsed, "") {
		log.Info("parsed data rejected, not usable as a resume")
		return domain.NewResumeError(job, domain.CodeInvalidResumeData, "Parsed resume data does not contain usable resume content"), nil
	}

	if payload, rejected := p.matchTitle(ctx, job, parsed); rejected {
		return payload, nil
	}

	score, err := p.scorer.ScoreAdvanced(ctx, parsed, job.RequirementsText(), job.Criteria, job.Context())
	if err != nil {
		return domain.ResultPayload{}, fmt.Errorf("op=usecase.scoreParsed score: %w", err)
	}
	p.recordScore(score.TotalScore)

	log.Info("parsed resume rescored",
		slog.Float64("total_score", score.TotalScore), slog.Int("criteria", len(score.Items)))
	info := domain.ExtractCandidateInfo(parsed, score)
	return domain.NewResumeResult(job, score, info, nil), nil
}

// matchTitle runs the title gate shared by both resume paths. Jobs without a
// required title skip the gate inside the matcher.
func (p *Pipeline) matchTitle(ctx domain.Context, job domain.ResumeJob, parsed domain.ParsedResume) (domain.ResultPayload, bool) {
	verdict := p.matcher.MatchTitle(ctx, job.JobTitle, parsed)
	if verdict.Matched {
		return domain.ResultPayload{}, false
	}
	observability.LoggerFromContext(ctx).Info("job title not matched",
		slog.String("required_title", job.JobTitle), slog.String("reason", verdict.Reason))
	reason := verdict.Reason
	if reason == "" {
		reason = "Resume job titles do not match the required job title"
	}
	return domain.NewResumeError(job, domain.CodeJobTitleNotMatched, reason), true
}

// ProcessComparisonJob runs one comparison job. Comparisons never retry:
// every failure mode is folded into a deliverable payload.
func (p *Pipeline) ProcessComparisonJob(ctx domain.Context, job domain.ComparisonJob) domain.ResultPayload {
	outcome := p.comparator.Compare(ctx, job)
	if outcome.Result == nil {
		return domain.NewComparisonError(job, outcome.ErrorCode, outcome.Reason)
	}
	return domain.NewComparisonResult(job, *outcome.Result)
}

func (p *Pipeline) recordScore(total float64) {
	observability.ObserveResumeScore(total)
	p.drift.Record(total)
}
