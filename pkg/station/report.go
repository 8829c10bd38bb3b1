package station

import (
	"strconv"
	"strings"
	"time"
)

// ReportKind discriminates the Report variant.
type ReportKind uint8

const (
	// ReportLog is any line that is not part of the machine protocol:
	// boot banners and other informational output.
	ReportLog ReportKind = iota
	ReportData
	ReportLiveData
	ReportButtonPress
	ReportProcessStart
	ReportProcessEnd
	ReportFatal
)

// Report is one parsed line from the fixture.
type Report struct {
	Kind ReportKind

	// Data only.
	Elapsed time.Duration

	// Data and LiveData.
	Voltage       float64 // V
	CurrentMA     float64
	PowerMW       float64
	ResistanceOhm float64

	// ButtonPress: START, ABORT or MEASURE.
	Button string

	// ProcessEnd, Fatal and Log.
	Message string
}

// ParseReport parses a line from the fixture. The firmware intermixes
// protocol records with human-readable banners, so parsing never fails:
// anything unrecognized (or malformed) comes back as a ReportLog carrying
// the raw line.
func ParseReport(line string) Report {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, "DATA,"):
		if r, ok := parseData(strings.TrimPrefix(line, "DATA,")); ok {
			return r
		}
	case strings.HasPrefix(line, "LIVE_DATA,"):
		if r, ok := parseLiveData(strings.TrimPrefix(line, "LIVE_DATA,")); ok {
			return r
		}
	case strings.HasPrefix(line, "BTN_PRESS,"):
		name := strings.TrimPrefix(line, "BTN_PRESS,")
		switch name {
		case "START", "ABORT", "MEASURE":
			return Report{Kind: ReportButtonPress, Button: name}
		}
	case line == "PROCESS_START":
		return Report{Kind: ReportProcessStart}
	case strings.HasPrefix(line, "PROCESS_END:"):
		msg := strings.TrimSpace(strings.TrimPrefix(line, "PROCESS_END:"))
		return Report{Kind: ReportProcessEnd, Message: msg}
	case strings.HasPrefix(line, "FATAL:"):
		msg := strings.TrimSpace(strings.TrimPrefix(line, "FATAL:"))
		return Report{Kind: ReportFatal, Message: msg}
	}

	return Report{Kind: ReportLog, Message: line}
}

// parseData parses "<elapsedMs>,<voltage>,<currentMa>,<powerMw>,<resistanceOhm>".
func parseData(rest string) (Report, bool) {
	parts := strings.Split(rest, ",")
	if len(parts) != 5 {
		return Report{}, false
	}

	elapsedMs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || elapsedMs < 0 {
		return Report{}, false
	}

	vals, ok := parseFloats(parts[1:])
	if !ok {
		return Report{}, false
	}

	return Report{
		Kind:          ReportData,
		Elapsed:       time.Duration(elapsedMs) * time.Millisecond,
		Voltage:       vals[0],
		CurrentMA:     vals[1],
		PowerMW:       vals[2],
		ResistanceOhm: vals[3],
	}, true
}

// parseLiveData parses "<voltage>,<currentMa>,<powerMw>,<resistanceOhm>".
func parseLiveData(rest string) (Report, bool) {
	parts := strings.Split(rest, ",")
	if len(parts) != 4 {
		return Report{}, false
	}

	vals, ok := parseFloats(parts)
	if !ok {
		return Report{}, false
	}

	return Report{
		Kind:          ReportLiveData,
		Voltage:       vals[0],
		CurrentMA:     vals[1],
		PowerMW:       vals[2],
		ResistanceOhm: vals[3],
	}, true
}

func parseFloats(parts []string) ([4]float64, bool) {
	var vals [4]float64
	if len(parts) != 4 {
		return vals, false
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return vals, false
		}
		vals[i] = v
	}
	return vals, true
}
