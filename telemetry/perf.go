package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for one rendered frame.
const (
	PhaseUniforms = "uniforms"
	PhaseDraw     = "draw"
)

// Phases lists the frame phases in execution order.
var Phases = []string{PhaseUniforms, PhaseDraw}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameWork time.Duration // Time spent inside the frame callback
	Interval  time.Duration // Time since the previous frame started
	Phases    map[string]time.Duration
}

// PerfCollector tracks frame timing over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	frames        int64
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	lastFrameTime time.Time
	interval      time.Duration

	now func() time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to aggregate (e.g., 120 for 2 seconds at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	now := p.now()
	if !p.lastFrameTime.IsZero() {
		p.interval = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
	p.frameStart = now
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameWork: now.Sub(p.frameStart),
		Interval:  p.interval,
		Phases:    p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.frames++
}

// Frames returns the number of frames recorded since creation.
func (p *PerfCollector) Frames() int64 {
	return p.frames
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Frames int

	// Work done inside the frame callback
	AvgFrameWork    time.Duration
	MinFrameWork    time.Duration
	MaxFrameWork    time.Duration
	StdDevFrameWork time.Duration
	P95FrameWork    time.Duration

	// Phase breakdown
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Refresh cadence
	AvgInterval time.Duration
	FPS         float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Frames:   p.sampleCount,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return s
	}

	work := make([]float64, 0, p.sampleCount)
	intervals := make([]float64, 0, p.sampleCount)
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		sample := p.samples[i]
		work = append(work, float64(sample.FrameWork))
		if sample.Interval > 0 {
			intervals = append(intervals, float64(sample.Interval))
		}
		for phase, dur := range sample.Phases {
			phaseSum[phase] += dur
		}
	}

	sort.Float64s(work)
	mean, std := stat.MeanStdDev(work, nil)
	if len(work) < 2 {
		std = 0
	}
	s.AvgFrameWork = time.Duration(mean)
	s.StdDevFrameWork = time.Duration(std)
	s.MinFrameWork = time.Duration(work[0])
	s.MaxFrameWork = time.Duration(work[len(work)-1])
	s.P95FrameWork = time.Duration(stat.Quantile(0.95, stat.Empirical, work, nil))

	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		s.PhaseAvg[phase] = avg
		if s.AvgFrameWork > 0 {
			s.PhasePct[phase] = float64(avg) / float64(s.AvgFrameWork) * 100
		}
	}

	if len(intervals) > 0 {
		s.AvgInterval = time.Duration(stat.Mean(intervals, nil))
		if s.AvgInterval > 0 {
			s.FPS = float64(time.Second) / float64(s.AvgInterval)
		}
	}

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frames", s.Frames),
		slog.Int64("avg_work_us", s.AvgFrameWork.Microseconds()),
		slog.Int64("p95_work_us", s.P95FrameWork.Microseconds()),
		slog.Int64("max_work_us", s.MaxFrameWork.Microseconds()),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd   int64   `csv:"window_end"`
	AvgWorkUS   int64   `csv:"avg_work_us"`
	MinWorkUS   int64   `csv:"min_work_us"`
	MaxWorkUS   int64   `csv:"max_work_us"`
	StdDevUS    int64   `csv:"stddev_work_us"`
	P95WorkUS   int64   `csv:"p95_work_us"`
	FPS         float64 `csv:"fps"`
	UniformsPct float64 `csv:"uniforms_pct"`
	DrawPct     float64 `csv:"draw_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:   windowEnd,
		AvgWorkUS:   s.AvgFrameWork.Microseconds(),
		MinWorkUS:   s.MinFrameWork.Microseconds(),
		MaxWorkUS:   s.MaxFrameWork.Microseconds(),
		StdDevUS:    s.StdDevFrameWork.Microseconds(),
		P95WorkUS:   s.P95FrameWork.Microseconds(),
		FPS:         s.FPS,
		UniformsPct: s.PhasePct[PhaseUniforms],
		DrawPct:     s.PhasePct[PhaseDraw],
	}
}
