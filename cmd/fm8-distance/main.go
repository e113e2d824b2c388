package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/anothermachines/fm8-r-2/analysis"
	"github.com/anothermachines/fm8-r-2/internal/wavutil"
)

func main() {
	referencePath := flag.String("reference", "reference/kick.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path")
	sampleRate := flag.Int("sample-rate", 44100, "Analysis sample rate in Hz")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *candidatePath == "" {
		die("candidate path is required")
	}

	ref, err := loadMonoAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	cand, err := loadMonoAt(*candidatePath, *sampleRate)
	if err != nil {
		die("failed to read candidate: %v", err)
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Println()
	fmt.Printf("Time RMSE:        %.6f\n", metrics.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.1f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.1f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Decay slopes:     ref=%.1f dB/s  cand=%.1f dB/s  diff=%.1f dB/s\n",
		metrics.RefDecayDBPerS, metrics.CandDecayDBPerS, metrics.DecayDiffDBPerS)
	fmt.Println()
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

func loadMonoAt(path string, sampleRate int) ([]float64, error) {
	raw, rate, err := wavutil.ReadMono(path)
	if err != nil {
		return nil, err
	}
	return wavutil.ResampleIfNeeded(raw, rate, sampleRate)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
