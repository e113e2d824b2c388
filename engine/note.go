package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-approx"
)

// DefaultPitch is the MIDI note every malformed or empty note name resolves
// to. Triggering never fails on bad input; it falls back here.
const DefaultPitch = 48 // C3

var noteOffsets = map[string]int{
	"C": 0, "C#": 1, "DB": 1,
	"D": 2, "D#": 3, "EB": 3,
	"E": 4,
	"F": 5, "F#": 6, "GB": 6,
	"G": 7, "G#": 8, "AB": 8,
	"A": 9, "A#": 10, "BB": 10,
	"B": 11,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteToMIDI parses a scientific-pitch note name ("C4", "A#3", "Db-1") into a
// MIDI note number. Malformed or out-of-range names resolve to DefaultPitch.
func NoteToMIDI(name string) int {
	s := strings.ToUpper(strings.TrimSpace(name))
	if len(s) < 2 {
		return DefaultPitch
	}
	head := 1
	if s[1] == '#' || s[1] == 'B' {
		// "B" alone is a note letter; an accidental needs an octave after it.
		if len(s) > 2 {
			head = 2
		}
	}
	offset, ok := noteOffsets[s[:head]]
	if !ok {
		return DefaultPitch
	}
	octave, err := strconv.Atoi(s[head:])
	if err != nil {
		return DefaultPitch
	}
	n := (octave+1)*12 + offset
	if n < 0 || n > 127 {
		return DefaultPitch
	}
	return n
}

// MIDIToNote formats a MIDI note number as a sharp-spelled scientific pitch
// name. Inverse of NoteToMIDI over 0..127.
func MIDIToNote(note int) string {
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	return sharpNames[note%12] + strconv.Itoa(note/12-1)
}

// midiNoteToFreq converts a MIDI note number to frequency in Hz.
func midiNoteToFreq(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func centsToRatio(cents float32) float32 {
	return pow2Approx(cents / 1200.0)
}

func semisToRatio(semis float32) float32 {
	return pow2Approx(semis / 12.0)
}

func log2Approx(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Log2(float64(x)))
}
