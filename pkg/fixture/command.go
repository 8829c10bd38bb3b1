package fixture

import (
	"strconv"
	"strings"
)

// CommandKind discriminates the Command variant.
type CommandKind uint8

const (
	CmdUnrecognized CommandKind = iota
	CmdStart
	CmdAbort
	CmdSetMode
	CmdSetLoad
)

// Mode is the operating mode requested by a SET_MODE command.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeLive
)

// Command is the typed form of one host protocol line. Internal logic never
// re-parses text; everything it needs is carried here.
type Command struct {
	Kind        CommandKind
	DurationSec int  // CmdStart
	Mode        Mode // CmdSetMode
	LoadOn      bool // CmdSetLoad
}

// ParseCommand turns a raw line into a Command. Keyword matching is
// case-insensitive and leading/trailing whitespace is ignored. Anything that
// does not match the grammar parses as CmdUnrecognized; no side effects.
//
// Grammar:
//
//	START,<seconds>
//	ABORT
//	SET_MODE,<IDLE|LIVE>
//	SET_MOSFET,<0|1>
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	keyword, arg, hasArg := strings.Cut(line, ",")
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	arg = strings.TrimSpace(arg)

	switch keyword {
	case "START":
		if !hasArg {
			return Command{}
		}
		// Zero is a valid duration (the test finishes immediately); only
		// negatives are rejected alongside non-numeric input.
		sec, err := strconv.Atoi(arg)
		if err != nil || sec < 0 {
			return Command{}
		}
		return Command{Kind: CmdStart, DurationSec: sec}

	case "ABORT":
		if hasArg {
			return Command{}
		}
		return Command{Kind: CmdAbort}

	case "SET_MODE":
		switch strings.ToUpper(arg) {
		case "IDLE":
			return Command{Kind: CmdSetMode, Mode: ModeIdle}
		case "LIVE":
			return Command{Kind: CmdSetMode, Mode: ModeLive}
		}
		return Command{}

	case "SET_MOSFET":
		switch arg {
		case "0":
			return Command{Kind: CmdSetLoad, LoadOn: false}
		case "1":
			return Command{Kind: CmdSetLoad, LoadOn: true}
		}
		return Command{}
	}

	return Command{}
}
