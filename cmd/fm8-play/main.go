package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/anothermachines/fm8-r-2/engine"
	"github.com/anothermachines/fm8-r-2/internal/wavutil"
	"github.com/anothermachines/fm8-r-2/preset"
	"github.com/ebitengine/oto/v3"
)

func main() {
	kitPath := flag.String("kit", "", "Kit JSON file path (optional, default kit when empty)")
	bpm := flag.Float64("bpm", 0, "Tempo override in BPM (0 = kit/default tempo)")
	irPath := flag.String("rumble-ir", "", "Kick rumble impulse response WAV (optional)")
	sampleRate := flag.Int("sample-rate", 44100, "Playback sample rate in Hz")
	duration := flag.Float64("duration", 0, "Stop after this many seconds (0 = run until interrupted)")
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

	eng := engine.NewEngine(*sampleRate, store.Tempo(), store.GlobalFX())
	if *irPath != "" {
		ir, err := wavutil.ReadMonoFloat32(*irPath, *sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading rumble IR %q: %v\n", *irPath, err)
			os.Exit(1)
		}
		eng.SetRumbleIR(ir)
	}

	op := &oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio context: %v\n", err)
		os.Exit(1)
	}
	<-ready

	sched := engine.NewScheduler(store, eng)
	sched.Start()
	defer sched.Stop()

	player := ctx.NewPlayer(eng)
	player.Play()
	defer player.Close()

	fmt.Printf("Playing at %.1f BPM, %d Hz. Ctrl+C to stop.\n", store.Tempo(), *sampleRate)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	if *duration > 0 {
		select {
		case <-sig:
		case <-time.After(time.Duration(*duration * float64(time.Second))):
		}
	} else {
		<-sig
	}
	fmt.Println("Stopping.")
}
