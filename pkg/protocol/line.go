// Package protocol implements the newline delimited text protocol spoken between
// the monitor device and the capture host.
//
// Every line starts with a fixed tag:
//
//	CSV_AUTO_START                     device started
//	LOG: <text>                        human readable log
//	CSV_CMD:<COMMAND>:<ARGS>           machine command for the host
//	DATA: <csv>                        human readable copy of WRITE_DATA
//	ALERT: <text>                      human readable alert notice
//
// Commands are fire-and-forget: the device never reads an acknowledgement.
package protocol

import (
	"strings"
)

// Kind identifies the tag a line starts with.
type Kind int

const (
	KindStart Kind = iota
	KindLog
	KindCommand
	KindData
	KindAlert
)

// Wire tags.
const (
	StartMarker  = "CSV_AUTO_START"
	LogPrefix    = "LOG:"
	CmdPrefix    = "CSV_CMD:"
	DataPrefix   = "DATA:"
	AlertPrefix  = "ALERT:"
	cmdSeparator = ":"
)

// Command is a machine command carried in a CSV_CMD line.
type Command string

const (
	CreateFileCmd  Command = "CREATE_FILE"
	WriteHeaderCmd Command = "WRITE_HEADER"
	WriteDataCmd   Command = "WRITE_DATA"
	WriteAlertCmd  Command = "WRITE_ALERT"
	FlushFileCmd   Command = "FLUSH_FILE"
)

// Line is a single protocol line in structured form.
type Line struct {
	Kind    Kind
	Command Command // only for KindCommand
	Payload string
}

// String renders the line as it appears on the wire, without the newline.
func (l Line) String() string {
	switch l.Kind {
	case KindStart:
		return StartMarker
	case KindLog:
		return LogPrefix + " " + l.Payload
	case KindCommand:
		return CmdPrefix + string(l.Command) + cmdSeparator + l.Payload
	case KindData:
		return DataPrefix + " " + l.Payload
	case KindAlert:
		return AlertPrefix + " " + l.Payload
	}
	return ""
}

// Start returns the startup marker line.
func Start() Line {
	return Line{Kind: KindStart}
}

// Log returns a human readable log line.
func Log(msg string) Line {
	return Line{Kind: KindLog, Payload: msg}
}

// CreateFile asks the host to create the output file.
func CreateFile(name string) Line {
	return command(CreateFileCmd, name)
}

// WriteHeader asks the host to write the CSV header.
func WriteHeader(columns []string) Line {
	return command(WriteHeaderCmd, strings.Join(columns, ","))
}

// WriteData asks the host to append one record.
func WriteData(rec Record) Line {
	return command(WriteDataCmd, rec.CSV())
}

// WriteAlert asks the host to append an alert. The payload is "<msg> - <ts>".
func WriteAlert(msg string, ts Millis) Line {
	return command(WriteAlertCmd, msg+alertSeparator+ts.String())
}

// FlushFile asks the host to sync its files to disk.
func FlushFile() Line {
	return command(FlushFileCmd, "")
}

// Data returns the human readable copy of a record.
func Data(rec Record) Line {
	return Line{Kind: KindData, Payload: rec.CSV()}
}

// AlertNotice returns a human readable alert line.
func AlertNotice(text string) Line {
	return Line{Kind: KindAlert, Payload: text}
}

func command(cmd Command, payload string) Line {
	return Line{Kind: KindCommand, Command: cmd, Payload: payload}
}
