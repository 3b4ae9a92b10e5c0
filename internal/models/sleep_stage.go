package models

import "strings"

// SleepStage is a canonical sleep stage, independent of provider vocabulary.
type SleepStage int

const (
	StageUnknown SleepStage = iota
	StageLight
	StageDeep
	StageREM
	StageAwake
	StageInBed
	StageAsleep // asleep with no stage breakdown
)

func (s SleepStage) String() string {
	switch s {
	case StageLight:
		return "Light"
	case StageDeep:
		return "Deep"
	case StageREM:
		return "REM"
	case StageAwake:
		return "Awake"
	case StageInBed:
		return "In Bed"
	case StageAsleep:
		return "Asleep"
	}
	return "Unknown"
}

// stageNames maps lowercased, possibly localized stage labels to a stage.
// Apple Health reports light sleep as "Core"; Fitbit and Google Fit say "light".
var stageNames = map[string]SleepStage{
	// English
	"core":   StageLight,
	"light":  StageLight,
	"deep":   StageDeep,
	"rem":    StageREM,
	"awake":  StageAwake,
	"wake":   StageAwake,
	"in bed": StageInBed,
	"asleep": StageAsleep,

	// German
	"kern":    StageLight,
	"leicht":  StageLight,
	"tief":    StageDeep,
	"wach":    StageAwake,
	"im bett": StageInBed,

	// French
	"paradoxal": StageREM,
	"profond":   StageDeep,
	"léger":     StageLight,
	"leger":     StageLight,
	"éveillé":   StageAwake,
	"eveille":   StageAwake,
	"au lit":    StageInBed,
	"endormi":   StageAsleep,

	// Spanish ("principal" is shared with Portuguese)
	"profundo":   StageDeep,
	"principal":  StageLight,
	"despierto":  StageAwake,
	"despierta":  StageAwake,
	"en la cama": StageInBed,
	"dormido":    StageAsleep,
	"dormida":    StageAsleep,

	// Italian
	"profondo":     StageDeep,
	"essenziale":   StageLight,
	"sveglio":      StageAwake,
	"sveglia":      StageAwake,
	"a letto":      StageInBed,
	"addormentato": StageAsleep,

	// Portuguese
	"sono profundo": StageDeep,
	"acordado":      StageAwake,
	"acordada":      StageAwake,
	"na cama":       StageInBed,
	"dormindo":      StageAsleep,

	// Dutch
	"diep":    StageDeep,
	"wakker":  StageAwake,
	"slapend": StageAsleep,

	// Japanese
	"コア":   StageLight,
	"深い":   StageDeep,
	"レム":   StageREM,
	"覚醒":   StageAwake,
	"ベッドで": StageInBed,

	// Chinese (Simplified)
	"核心":   StageLight,
	"深度":   StageDeep,
	"快速眼动": StageREM,
	"清醒":   StageAwake,
	"在床上":  StageInBed,

	// Chinese (Traditional)
	"核心睡眠": StageLight,
	"深層":   StageDeep,
	"快速動眼": StageREM,

	// Korean
	"코어":   StageLight,
	"깊은":   StageDeep,
	"렘":    StageREM,
	"깨어있음": StageAwake,
	"침대에서": StageInBed,
}

// ParseSleepStage maps a stage label in any supported language to a stage.
// The second result is false for unrecognized labels.
func ParseSleepStage(raw string) (SleepStage, bool) {
	s, ok := stageNames[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return StageUnknown, false
	}
	return s, true
}

// GoogleFitStage maps a Google Fit sleep segment type code to a stage.
// 1 awake, 2 generic sleep, 3 out of bed, 4 light, 5 deep, 6 REM.
func GoogleFitStage(code int) SleepStage {
	switch code {
	case 1, 3:
		return StageAwake
	case 2:
		return StageAsleep
	case 4:
		return StageLight
	case 5:
		return StageDeep
	case 6:
		return StageREM
	}
	return StageUnknown
}
