package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLine is returned by Parse for lines that carry none of the protocol tags.
var ErrUnknownLine = errors.New("unknown line")

// Parse converts a line received from the device into its structured form.
// Leading and trailing whitespace, including a CR from CRLF endings, is ignored.
func Parse(text string) (Line, error) {
	text = strings.TrimSpace(text)

	switch {
	case text == StartMarker:
		return Start(), nil
	case strings.HasPrefix(text, CmdPrefix):
		return parseCommand(text[len(CmdPrefix):])
	case strings.HasPrefix(text, LogPrefix):
		return Log(strings.TrimSpace(text[len(LogPrefix):])), nil
	case strings.HasPrefix(text, DataPrefix):
		return Line{Kind: KindData, Payload: strings.TrimSpace(text[len(DataPrefix):])}, nil
	case strings.HasPrefix(text, AlertPrefix):
		return AlertNotice(strings.TrimSpace(text[len(AlertPrefix):])), nil
	}

	return Line{}, fmt.Errorf("%w: %q", ErrUnknownLine, text)
}

func parseCommand(rest string) (Line, error) {
	name, payload, _ := strings.Cut(rest, cmdSeparator)

	cmd := Command(name)
	switch cmd {
	case CreateFileCmd, WriteHeaderCmd, WriteDataCmd, WriteAlertCmd, FlushFileCmd:
	default:
		return Line{}, fmt.Errorf("%w: command %q", ErrUnknownLine, name)
	}

	return command(cmd, payload), nil
}
