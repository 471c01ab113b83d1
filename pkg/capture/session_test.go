package capture

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itohio/sensmon/pkg/protocol"
	"github.com/itohio/sensmon/pkg/sensor"
	"github.com/itohio/sensmon/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps everything in memory.
type memStore struct {
	file    string
	header  []string
	records []protocol.Record
	alerts  []string
	flushes int
	err     error
}

func (m *memStore) Create(name string) error {
	m.file = name
	return m.err
}

func (m *memStore) WriteHeader(columns []string) error {
	m.header = columns
	return m.err
}

func (m *memStore) WriteRecord(rec protocol.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) WriteAlert(msg string, ts protocol.Millis) error {
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, msg+" - "+ts.String())
	return nil
}

func (m *memStore) Flush() error {
	m.flushes++
	return m.err
}

func (m *memStore) Close() error { return nil }

func mustParse(t *testing.T, lines ...string) []protocol.Line {
	t.Helper()
	out := make([]protocol.Line, 0, len(lines))
	for _, text := range lines {
		l, err := protocol.Parse(text)
		require.NoError(t, err, text)
		out = append(out, l)
	}
	return out
}

func feed(lines []protocol.Line) <-chan protocol.Line {
	ch := make(chan protocol.Line, len(lines))
	for _, l := range lines {
		ch <- l
	}
	close(ch)
	return ch
}

func TestSession_Process(t *testing.T) {
	mem := &memStore{}
	sess := NewSession(mem)

	var (
		records []protocol.Record
		alerts  []string
	)
	sess.OnRecord(func(r protocol.Record) { records = append(records, r) })
	sess.OnAlert(func(msg string, ts protocol.Millis) { alerts = append(alerts, msg) })

	lines := mustParse(t,
		"CSV_AUTO_START",
		"LOG: === Industrial sensor monitor ===",
		"CSV_CMD:CREATE_FILE:monitoring_data.csv",
		"CSV_CMD:WRITE_HEADER:"+strings.Join(protocol.Header, ","),
		"CSV_CMD:WRITE_DATA:0,36.50,50.00,10,0.000,0.000,1.000,0.00,0.00,0.00,CRITICO",
		"ALERT: CRITICAL - critical temperature (temperature above 35C)",
		"CSV_CMD:WRITE_ALERT:CRITICAL - critical temperature - 5",
		"DATA: 0,36.50,50.00,10,0.000,0.000,1.000,0.00,0.00,0.00,CRITICO",
		"CSV_CMD:FLUSH_FILE:",
	)

	sum := sess.Run(feed(lines))

	assert.Equal(t, Summary{
		Started: true,
		File:    "monitoring_data.csv",
		Records: 1,
		Mirrors: 1,
		Alerts:  1,
		Flushes: 1,
	}, sum)

	assert.Equal(t, "monitoring_data.csv", mem.file)
	assert.Equal(t, protocol.Header, mem.header)
	require.Len(t, mem.records, 1)
	assert.Equal(t, sensor.Critico, mem.records[0].Status)
	assert.Equal(t, []string{"CRITICAL - critical temperature - 5"}, mem.alerts)
	assert.Equal(t, 1, mem.flushes)

	assert.Equal(t, mem.records, records)
	assert.Equal(t, []string{"CRITICAL - critical temperature"}, alerts)
}

func TestSession_Errors(t *testing.T) {
	tests := []struct {
		name string
		line protocol.Line
		err  error
	}{
		{
			name: "malformed record",
			line: protocol.Line{Kind: protocol.KindCommand, Command: protocol.WriteDataCmd, Payload: "1,2,3"},
		},
		{
			name: "malformed alert",
			line: protocol.Line{Kind: protocol.KindCommand, Command: protocol.WriteAlertCmd, Payload: "no timestamp"},
		},
		{
			name: "unknown command",
			line: protocol.Line{Kind: protocol.KindCommand, Command: "DROP"},
			err:  protocol.ErrUnknownLine,
		},
		{
			name: "unknown kind",
			line: protocol.Line{Kind: protocol.Kind(99)},
			err:  protocol.ErrUnknownLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &memStore{}
			sess := NewSession(mem)

			err := sess.Process(tt.line)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			assert.Equal(t, 1, sess.Summary().Errors)
			assert.Empty(t, mem.records)
			assert.Empty(t, mem.alerts)
		})
	}
}

func TestSession_StoreErrorContinues(t *testing.T) {
	mem := &memStore{err: errors.New("disk full")}
	sess := NewSession(mem)

	called := false
	sess.OnRecord(func(protocol.Record) { called = true })

	lines := mustParse(t,
		"CSV_CMD:CREATE_FILE:x.csv",
		"CSV_CMD:WRITE_DATA:0,20.00,50.00,10,0.000,0.000,1.000,0.00,0.00,0.00,NORMAL",
		"DATA: 0,20.00,50.00,10,0.000,0.000,1.000,0.00,0.00,0.00,NORMAL",
	)

	sum := sess.Run(feed(lines))

	assert.Equal(t, 2, sum.Errors)
	assert.Equal(t, 0, sum.Records)
	assert.Equal(t, 1, sum.Mirrors, "stream continues after store errors")
	assert.Empty(t, sum.File)
	assert.False(t, called)
}

func TestSession_MirrorFailureKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	csvStore, err := store.NewCSV(dir)
	require.NoError(t, err)
	defer csvStore.Close()

	mirror := &memStore{err: errors.New("influx unreachable")}
	sess := NewSession(store.Multi{csvStore, mirror})

	var got []protocol.Record
	sess.OnRecord(func(rec protocol.Record) { got = append(got, rec) })
	alerts := 0
	sess.OnAlert(func(string, protocol.Millis) { alerts++ })

	lines := mustParse(t,
		"CSV_CMD:CREATE_FILE:run.csv",
		"CSV_CMD:WRITE_HEADER:"+strings.Join(protocol.Header, ","),
		"CSV_CMD:WRITE_DATA:0,20.00,50.00,10,0.000,0.000,1.000,0.00,0.00,0.00,NORMAL",
		"CSV_CMD:WRITE_DATA:3000,36.00,50.00,10,0.000,0.000,1.000,0.00,0.00,0.00,CRITICO",
		"CSV_CMD:WRITE_ALERT:CRITICAL - critical temperature - 3000",
		"CSV_CMD:FLUSH_FILE:",
	)

	sum := sess.Run(feed(lines))

	assert.Equal(t, "run.csv", sum.File)
	assert.Equal(t, 2, sum.Records)
	assert.Equal(t, 1, sum.Alerts)
	assert.Equal(t, 1, sum.Flushes)
	assert.Zero(t, sum.Errors)
	assert.Equal(t, 6, sum.MirrorErrors)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, alerts)

	data, err := os.ReadFile(filepath.Join(dir, "run.csv"))
	require.NoError(t, err)
	rows := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, rows, 3)
}

func TestSession_PrimaryFailureWithMirror(t *testing.T) {
	primary := &memStore{err: errors.New("disk full")}
	mirror := &memStore{}
	sess := NewSession(store.Multi{primary, mirror})

	called := false
	sess.OnRecord(func(protocol.Record) { called = true })

	err := sess.Process(protocol.WriteData(protocol.Record{}))
	assert.ErrorContains(t, err, "disk full")
	assert.NotErrorIs(t, err, store.ErrMirror)

	sum := sess.Summary()
	assert.Equal(t, 1, sum.Errors)
	assert.Zero(t, sum.Records)
	assert.Zero(t, sum.MirrorErrors)
	assert.False(t, called)
	assert.Len(t, mirror.records, 1)
}

func TestSession_WithoutCreateFile(t *testing.T) {
	csvStore, err := store.NewCSV(t.TempDir())
	require.NoError(t, err)
	defer csvStore.Close()

	sess := NewSession(csvStore)
	err = sess.Process(protocol.WriteData(protocol.Record{}))
	assert.ErrorIs(t, err, store.ErrNoFile)
}

func TestSession_MockEndToEnd(t *testing.T) {
	dir := t.TempDir()
	csvStore, err := store.NewCSV(dir)
	require.NoError(t, err)

	mock := NewMock(testMockConfig())
	require.NoError(t, mock.Connect())

	sess := NewSession(csvStore)
	got := make(chan struct{}, 100)
	sess.OnRecord(func(protocol.Record) { got <- struct{}{} })

	done := make(chan Summary)
	go func() { done <- sess.Run(mock.Lines()) }()

	for i := 0; i < 3; i++ {
		select {
		case <-got:
		case <-time.After(5 * time.Second):
			t.Fatal("no records from mock")
		}
	}

	require.NoError(t, mock.Close())
	sum := <-done
	require.NoError(t, csvStore.Close())

	assert.True(t, sum.Started)
	assert.Equal(t, protocol.DefaultFileName, sum.File)
	assert.GreaterOrEqual(t, sum.Records, 3)
	assert.Zero(t, sum.Errors)

	data, err := os.ReadFile(filepath.Join(dir, protocol.DefaultFileName))
	require.NoError(t, err)
	rows := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, strings.Join(protocol.Header, ","), rows[0])
	assert.Len(t, rows, sum.Records+1)

	assert.FileExists(t, filepath.Join(dir, store.AlertsFileName(protocol.DefaultFileName)))
}
