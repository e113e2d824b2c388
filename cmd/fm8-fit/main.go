package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anothermachines/fm8-r-2/analysis"
	"github.com/anothermachines/fm8-r-2/engine"
	"github.com/anothermachines/fm8-r-2/internal/wavutil"
	"github.com/cwbudde/mayfly"
)

type knobDef struct {
	Name string
	Min  float64
	Max  float64
	Log  bool
}

type candidate struct {
	Vals []float64
}

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	SampleRate     int                `json:"sample_rate"`
	Note           int                `json:"note"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
}

// kickKnobs is the search space: normalized [0,1] positions map into these
// ranges, logarithmic for the frequency-like ones.
var kickKnobs = []knobDef{
	{Name: "tune", Min: 30, Max: 90, Log: true},
	{Name: "decay", Min: 0.05, Max: 1.5, Log: false},
	{Name: "pitch_env_amount", Min: 0, Max: 1, Log: false},
	{Name: "punch", Min: 0, Max: 1, Log: false},
	{Name: "body", Min: 0, Max: 1, Log: false},
	{Name: "tone", Min: 500, Max: 12000, Log: true},
	{Name: "noise_level", Min: 0, Max: 1, Log: false},
}

func main() {
	referencePath := flag.String("reference", "reference/kick.wav", "Reference one-shot WAV path")
	outputKit := flag.String("output-kit", "out/fitted-kick.json", "Path to write the fitted kick as a kit JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-kit>.report.json)")
	note := flag.Int("note", 36, "MIDI note to fit (36 = C2)")
	sampleRate := flag.Int("sample-rate", 44100, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 4000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}

	refRaw, refSR, err := wavutil.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err := wavutil.ResampleIfNeeded(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	evaluate := func(cand candidate) analysis.Metrics {
		kp := paramsFromCandidate(cand)
		rendered := renderOneShot(kp, *note, *sampleRate)
		return analysis.Compare(ref, rendered, *sampleRate)
	}

	best := candidate{Vals: []float64{0.5, 0.3, 0.6, 0.5, 0.5, 0.6, 0.2}}
	bestM := evaluate(best)
	fmt.Printf("Initial score=%.4f sim=%.2f%%\n", bestM.Score, bestM.Similarity*100.0)

	start := time.Now()
	evals := 1
	deadline := start.Add(time.Duration(*timeBudget * float64(time.Second)))

	for round := 0; evals < *maxEvals && time.Now().Before(deadline); round++ {
		iters := *mayflyRoundEvals / (*mayflyPop * 2)
		if iters < 1 {
			iters = 1
		}
		cfg, err := newMayflyConfig(strings.ToLower(*mayflyVariant), *mayflyPop, len(kickKnobs), iters)
		if err != nil {
			die("mayfly config: %v", err)
		}
		cfg.Rand = rand.New(rand.NewSource(*seed + int64(round)*7919))
		cfg.ObjectiveFunc = func(pos []float64) float64 {
			if evals >= *maxEvals || time.Now().After(deadline) {
				return bestM.Score + 1.0
			}
			cand := fromNormalized(pos)
			m := evaluate(cand)
			evals++
			if m.Score < bestM.Score {
				best = cand
				bestM = m
				fmt.Printf("Improved eval=%d score=%.4f sim=%.2f%%\n", evals, bestM.Score, bestM.Similarity*100.0)
			}
			if evals%*reportEvery == 0 {
				fmt.Printf("Progress round=%d eval=%d elapsed=%.1fs best=%.4f\n",
					round, evals, time.Since(start).Seconds(), bestM.Score)
			}
			return m.Score
		}
		if _, err := runMayfly(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
			continue
		}
	}

	elapsed := time.Since(start).Seconds()
	if err := writeOutputs(*outputKit, *reportPath, *referencePath, *sampleRate, *note, elapsed, evals, strings.ToLower(*mayflyVariant), best, bestM); err != nil {
		die("failed to write outputs: %v", err)
	}
	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		evals, elapsed, bestM.Score, bestM.Similarity*100.0, strings.ToLower(*mayflyVariant))
}

func knobValue(d knobDef, pos float64) float64 {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	if d.Log {
		return d.Min * math.Pow(d.Max/d.Min, pos)
	}
	return d.Min + (d.Max-d.Min)*pos
}

func fromNormalized(pos []float64) candidate {
	vals := make([]float64, len(kickKnobs))
	for i, d := range kickKnobs {
		p := 0.5
		if i < len(pos) {
			p = pos[i]
		}
		vals[i] = knobValue(d, p)
	}
	return candidate{Vals: vals}
}

func paramsFromCandidate(c candidate) engine.KickParams {
	return engine.KickParams{
		Tune:           float32(c.Vals[0]),
		Decay:          float32(c.Vals[1]),
		PitchEnvAmount: float32(c.Vals[2]),
		Punch:          float32(c.Vals[3]),
		Body:           float32(c.Vals[4]),
		Tone:           float32(c.Vals[5]),
		NoiseLevel:     float32(c.Vals[6]),
		Filter:         engine.FilterParams{Type: engine.FilterLowpass, Cutoff: 18000, Q: 0.707},
	}
}

// renderOneShot renders a single kick dry: no sends, unity compressor.
func renderOneShot(kp engine.KickParams, note, sampleRate int) []float64 {
	fx := engine.GlobalFXParams{
		Reverb: engine.ReverbParams{Decay: 0.1},
		Delay:  engine.DelayParams{Time: 0.1},
		Drive:  engine.DriveParams{Tone: 6500},
		Comp:   engine.CompressorParams{Ratio: 1},
	}
	eng := engine.NewEngine(sampleRate, 120, fx)
	r := engine.ResolvedParams{
		Kind:   engine.KindKick,
		Params: engine.InstrumentParams{Kick: &kp},
		Volume: 1,
	}
	eng.Trigger(0, r, note, 1, 0, 0.25)

	frames := int(float64(sampleRate) * (float64(kp.Decay)*2.5 + 0.2))
	out := make([]float32, frames*2)
	eng.Process(out)
	return wavutil.StereoToMono64(out)
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	// Mayfly's implementation assumes NC/2 parent pairs are available from both
	// male and female populations.
	cfg.NC = 2 * pop
	// Keep at least one mutation to avoid stalling on small populations.
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func writeOutputs(outputKit, reportPath, referencePath string, sampleRate, note int, elapsed float64, evals int, variant string, best candidate, bestM analysis.Metrics) error {
	knobs := make(map[string]float64, len(kickKnobs))
	for i, d := range kickKnobs {
		knobs[d.Name] = best.Vals[i]
	}

	kit := map[string]any{
		"tracks": map[string]any{
			"0": map[string]any{
				"kick": map[string]any{
					"tune":             best.Vals[0],
					"decay":            best.Vals[1],
					"pitch_env_amount": best.Vals[2],
					"punch":            best.Vals[3],
					"body":             best.Vals[4],
					"tone":             best.Vals[5],
					"noise_level":      best.Vals[6],
				},
			},
		},
	}
	if err := writeJSON(outputKit, kit); err != nil {
		return err
	}

	if reportPath == "" {
		reportPath = outputKit + ".report.json"
	}
	rep := runReport{
		ReferencePath:  referencePath,
		SampleRate:     sampleRate,
		Note:           note,
		DurationSec:    elapsed,
		Evaluations:    evals,
		MayflyVariant:  variant,
		BestScore:      bestM.Score,
		BestSimilarity: bestM.Similarity,
		BestMetrics:    bestM,
		BestKnobs:      knobs,
	}
	return writeJSON(reportPath, rep)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
