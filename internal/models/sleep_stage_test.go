package models

import "testing"

// TestParseSleepStageEnglish verifies the canonical English labels, including
// Apple's "Core" which is light sleep under another name.
func TestParseSleepStageEnglish(t *testing.T) {
	cases := []struct {
		input string
		want  SleepStage
	}{
		{"Core", StageLight},
		{"Light", StageLight},
		{"Deep", StageDeep},
		{"REM", StageREM},
		{"Awake", StageAwake},
		{"In Bed", StageInBed},
		{"Asleep", StageAsleep},
	}
	for _, tc := range cases {
		got, known := ParseSleepStage(tc.input)
		if !known {
			t.Errorf("ParseSleepStage(%q): expected known=true", tc.input)
		}
		if got != tc.want {
			t.Errorf("ParseSleepStage(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

// TestParseSleepStageLocalized verifies a sample of localized labels sent by
// phones configured in other languages.
func TestParseSleepStageLocalized(t *testing.T) {
	cases := []struct {
		input string
		want  SleepStage
	}{
		{"Kern", StageLight},
		{"Tief", StageDeep},
		{"Im Bett", StageInBed},
		{"Paradoxal", StageREM},
		{"Despierto", StageAwake},
		{"深い", StageDeep},
		{"렘", StageREM},
	}
	for _, tc := range cases {
		got, known := ParseSleepStage(tc.input)
		if !known || got != tc.want {
			t.Errorf("ParseSleepStage(%q) = %v,%v, want %v,true", tc.input, got, known, tc.want)
		}
	}
}

// TestParseSleepStageCaseAndSpace verifies lookup ignores case and surrounding whitespace.
func TestParseSleepStageCaseAndSpace(t *testing.T) {
	for _, in := range []string{"deep", "DEEP", "  Deep  "} {
		if got, _ := ParseSleepStage(in); got != StageDeep {
			t.Errorf("ParseSleepStage(%q) = %v, want Deep", in, got)
		}
	}
}

// TestParseSleepStageUnknown verifies unknown labels are reported, not guessed.
func TestParseSleepStageUnknown(t *testing.T) {
	got, known := ParseSleepStage("Nap")
	if known {
		t.Error("expected known=false for unknown label")
	}
	if got != StageUnknown {
		t.Errorf("got %v, want Unknown", got)
	}
}

// TestGoogleFitStage verifies the Google Fit segment type codes.
func TestGoogleFitStage(t *testing.T) {
	cases := map[int]SleepStage{
		1: StageAwake, 2: StageAsleep, 3: StageAwake,
		4: StageLight, 5: StageDeep, 6: StageREM, 99: StageUnknown,
	}
	for code, want := range cases {
		if got := GoogleFitStage(code); got != want {
			t.Errorf("GoogleFitStage(%d) = %v, want %v", code, got, want)
		}
	}
}
