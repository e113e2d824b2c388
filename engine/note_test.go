package engine

import "testing"

func TestNoteRoundTripAllMIDIValues(t *testing.T) {
	for n := 0; n <= 127; n++ {
		name := MIDIToNote(n)
		got := NoteToMIDI(name)
		if got != n {
			t.Fatalf("NoteToMIDI(MIDIToNote(%d)) = %d via %q", n, got, name)
		}
	}
}

func TestNoteToMIDIParsesAccidentalsAndCase(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"C4", 60},
		{"A4", 69},
		{"a#3", 58},
		{"Db4", 61},
		{"C-1", 0},
		{"G9", 127},
		{"B3", 59},
		{"bb3", 58},
		{" C4 ", 60},
	}
	for _, tc := range cases {
		if got := NoteToMIDI(tc.in); got != tc.want {
			t.Fatalf("NoteToMIDI(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNoteToMIDIMalformedFallsBackToDefault(t *testing.T) {
	for _, in := range []string{"", "C", "H4", "C#", "Cx4", "C128", "G#9", "4C"} {
		if got := NoteToMIDI(in); got != DefaultPitch {
			t.Fatalf("NoteToMIDI(%q) = %d, want default %d", in, got, DefaultPitch)
		}
	}
}

func TestMIDIToNoteClampsRange(t *testing.T) {
	if got := MIDIToNote(-5); got != "C-1" {
		t.Fatalf("MIDIToNote(-5) = %q, want C-1", got)
	}
	if got := MIDIToNote(200); got != "G9" {
		t.Fatalf("MIDIToNote(200) = %q, want G9", got)
	}
}

func TestMIDINoteToFreqReferencePitch(t *testing.T) {
	f := midiNoteToFreq(69)
	if f < 439 || f > 441 {
		t.Fatalf("A4 frequency = %f, want ~440", f)
	}
	// One octave doubles.
	ratio := midiNoteToFreq(81) / f
	if ratio < 1.99 || ratio > 2.01 {
		t.Fatalf("octave ratio = %f, want ~2", ratio)
	}
}
