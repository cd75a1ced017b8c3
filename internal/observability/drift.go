package observability

import (
	"log/slog"
	"sync"
)

// ScoreDriftMonitor watches the rolling mean of delivered total scores and
// warns when it shifts away from the baseline established by the first full
// window. A sustained shift usually means the model or the prompt changed
// behaviour.
type ScoreDriftMonitor struct {
	mu sync.Mutex

	model       string
	windowSize  int
	threshold   float64
	recent      []float64
	baseline    float64
	baselineSet bool
}

// NewScoreDriftMonitor creates a monitor for the given model. Scores are on
// the 0-100 scale, so threshold is in score points.
func NewScoreDriftMonitor(model string, windowSize int, threshold float64) *ScoreDriftMonitor {
	if windowSize <= 0 {
		windowSize = 50
	}
	if threshold <= 0 {
		threshold = 10
	}
	return &ScoreDriftMonitor{
		model:      model,
		windowSize: windowSize,
		threshold:  threshold,
		recent:     make([]float64, 0, windowSize),
	}
}

// Record adds one delivered total score. The first full window becomes the
// baseline; afterwards every full window is compared against it.
func (m *ScoreDriftMonitor) Record(score float64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent = append(m.recent, score)
	if len(m.recent) > m.windowSize {
		m.recent = m.recent[1:]
	}
	if len(m.recent) < m.windowSize {
		return
	}

	mean := meanOf(m.recent)
	if !m.baselineSet {
		m.baseline = mean
		m.baselineSet = true
		slog.Info("score baseline established",
			slog.String("model", m.model),
			slog.Float64("baseline", mean))
		return
	}

	drift := mean - m.baseline
	if drift < 0 {
		drift = -drift
	}
	ScoreDriftGauge.WithLabelValues(m.model).Set(drift)
	if drift > m.threshold {
		slog.Warn("score drift detected",
			slog.String("model", m.model),
			slog.Float64("baseline", m.baseline),
			slog.Float64("rolling_mean", mean),
			slog.Float64("drift", drift),
			slog.Float64("threshold", m.threshold))
	}
}

// Drift returns the absolute shift of the current rolling mean from the
// baseline, or zero before the baseline exists.
func (m *ScoreDriftMonitor) Drift() float64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.baselineSet || len(m.recent) == 0 {
		return 0
	}
	drift := meanOf(m.recent) - m.baseline
	if drift < 0 {
		drift = -drift
	}
	return drift
}

// Baseline returns the established baseline mean and whether one exists yet.
func (m *ScoreDriftMonitor) Baseline() (float64, bool) {
	if m == nil {
		return 0, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline, m.baselineSet
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
