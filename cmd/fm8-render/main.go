package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/anothermachines/fm8-r-2/engine"
	"github.com/anothermachines/fm8-r-2/internal/wavutil"
	"github.com/anothermachines/fm8-r-2/preset"
)

func main() {
	// Command-line flags
	kitPath := flag.String("kit", "", "Kit JSON file path (optional, default kit when empty)")
	steps := flag.Int("steps", 64, "Number of sixteenth steps to render")
	bpm := flag.Float64("bpm", 0, "Tempo override in BPM (0 = kit/default tempo)")
	tail := flag.Float64("tail", 0, "Extra seconds rendered after the last step")
	sampleRate := flag.Int("sample-rate", 44100, "Render sample rate in Hz")
	seed := flag.Uint64("seed", 1, "Noise seed; equal seeds render identical output")
	pcm16 := flag.Bool("pcm16", false, "Write 16-bit PCM instead of float32")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	store := engine.NewStore()
	if *kitPath != "" {
		if err := preset.LoadJSON(*kitPath, store); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading kit %q: %v\n", *kitPath, err)
			os.Exit(1)
		}
	}
	if *bpm > 0 {
		store.SetTempo(*bpm)
	}

	fmt.Printf("Rendering %d steps at %.1f BPM, %d Hz (kit: %s)...\n",
		*steps, store.Tempo(), *sampleRate, kitName(*kitPath))

	opts := engine.RenderOptions{
		SampleRate:  *sampleRate,
		Steps:       *steps,
		TailSeconds: *tail,
		Seed:        *seed,
	}
	samples, err := engine.Render(store, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}

	if *pcm16 {
		err = wavutil.WritePCM16File(*output, samples, *sampleRate, 2)
	} else {
		err = wavutil.WriteFloat32File(*output, samples, *sampleRate, 2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	frames := len(samples) / 2
	fmt.Printf("Successfully wrote %s (%d frames, %.3fs)\n",
		*output, frames, float64(frames)/float64(*sampleRate))
}

func kitName(path string) string {
	if path == "" {
		return "default"
	}
	return path
}
