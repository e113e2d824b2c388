package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/anothermachines/fm8-r-2/internal/wavutil"
	"github.com/anothermachines/fm8-r-2/irsynth"
)

// Generates impulse responses offline: a stereo room or plate for inspection
// of the bus reverb character, or a mono rumble usable with fm8-play's
// -rumble-ir flag.
func main() {
	kind := flag.String("kind", "room", "IR kind: room|plate|rumble")
	output := flag.String("output", "out/ir.wav", "Output WAV path")
	sampleRate := flag.Int("sample-rate", 44100, "Output sample rate")
	duration := flag.Float64("duration", 0, "IR length in seconds (0 = kind default)")
	seed := flag.Int64("seed", 1, "Random seed")
	brightness := flag.Float64("brightness", 0, "Spectral brightness control (0 = kind default)")
	lowDecay := flag.Float64("low-decay", 0, "Low-frequency decay time in seconds (0 = kind default)")
	highDecay := flag.Float64("high-decay", 0, "High-frequency decay time in seconds (0 = kind default)")
	flag.Parse()

	var (
		left, right []float32
		err         error
	)
	switch *kind {
	case "room":
		cfg := irsynth.DefaultRoomConfig()
		cfg.SampleRate = *sampleRate
		cfg.Seed = *seed
		if *duration > 0 {
			cfg.DurationS = *duration
		}
		if *brightness > 0 {
			cfg.Brightness = *brightness
		}
		if *lowDecay > 0 {
			cfg.LowDecayS = *lowDecay
		}
		if *highDecay > 0 {
			cfg.HighDecayS = *highDecay
		}
		left, right, err = irsynth.GenerateRoom(cfg)
	case "plate":
		cfg := irsynth.DefaultPlateConfig()
		cfg.SampleRate = *sampleRate
		cfg.Seed = *seed
		if *duration > 0 {
			cfg.DurationS = *duration
		}
		if *brightness > 0 {
			cfg.Brightness = *brightness
		}
		if *lowDecay > 0 {
			cfg.LowDecayS = *lowDecay
		}
		if *highDecay > 0 {
			cfg.HighDecayS = *highDecay
		}
		left, right, err = irsynth.GeneratePlate(cfg)
	case "rumble":
		cfg := irsynth.DefaultRumbleConfig()
		cfg.SampleRate = *sampleRate
		cfg.Seed = *seed
		if *duration > 0 {
			cfg.DurationS = *duration
		}
		mono, genErr := irsynth.GenerateRumble(cfg)
		left, right, err = mono, nil, genErr
	default:
		fmt.Fprintf(os.Stderr, "unknown IR kind %q (want room|plate|rumble)\n", *kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fm8-ir error: %v\n", err)
		os.Exit(1)
	}

	var samples []float32
	channels := 1
	if right != nil {
		channels = 2
		samples = make([]float32, len(left)*2)
		for i := range left {
			samples[i*2] = left[i]
			samples[i*2+1] = right[i]
		}
	} else {
		samples = left
	}

	if err := wavutil.WriteFloat32File(*output, samples, *sampleRate, channels); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("Kind: %s, SampleRate: %d Hz, Frames: %d, Channels: %d\n",
		*kind, *sampleRate, len(left), channels)
	fmt.Printf("RMS: %.6f\n", wavutil.RMS(samples))
}
