package capture

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/itohio/sensmon/pkg/protocol"
	"github.com/itohio/sensmon/pkg/store"
)

// ReportEvery is how many DATA lines pass between progress log messages.
const ReportEvery = 5

// Summary describes what a session received.
type Summary struct {
	Started bool   // CSV_AUTO_START was seen
	File    string // Last file the device created
	Records int    // WRITE_DATA rows persisted
	Mirrors int    // DATA lines received
	Alerts  int    // WRITE_ALERT rows persisted
	Flushes int
	Errors  int // Lines that could not be parsed or stored

	MirrorErrors int // Writes only a secondary store failed
}

// Session executes the device's persistence commands against a store and
// notifies listeners about records and alerts.
type Session struct {
	store store.Store

	mu       sync.Mutex
	summary  Summary
	onRecord []func(protocol.Record)
	onAlert  []func(msg string, ts protocol.Millis)
}

// NewSession creates a session writing into s.
func NewSession(s store.Store) *Session {
	return &Session{store: s}
}

// OnRecord registers a callback invoked for every persisted reading.
func (s *Session) OnRecord(fn func(protocol.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRecord = append(s.onRecord, fn)
}

// OnAlert registers a callback invoked for every persisted alert.
func (s *Session) OnAlert(fn func(msg string, ts protocol.Millis)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAlert = append(s.onAlert, fn)
}

// Summary returns a copy of the counters.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Run processes lines until the channel is closed. Errors are logged and the
// stream continues.
func (s *Session) Run(lines <-chan protocol.Line) Summary {
	for line := range lines {
		if err := s.Process(line); err != nil {
			log.Printf("Line %q: %v", line.String(), err)
		}
	}

	sum := s.Summary()
	log.Printf("Capture finished: %d records, %d alerts, %d errors, %d mirror errors",
		sum.Records, sum.Alerts, sum.Errors, sum.MirrorErrors)
	return sum
}

// Process handles a single line.
func (s *Session) Process(line protocol.Line) error {
	var err error

	switch line.Kind {
	case protocol.KindStart:
		s.update(func(sum *Summary) { sum.Started = true })
		log.Printf("Device detected, capture started")
	case protocol.KindLog:
		log.Printf("device: %s", line.Payload)
	case protocol.KindData:
		n := 0
		s.update(func(sum *Summary) {
			sum.Mirrors++
			n = sum.Mirrors
		})
		if n%ReportEvery == 0 {
			log.Printf("Total records received: %d", n)
		}
	case protocol.KindAlert:
		log.Printf("ALERT: %s", line.Payload)
	case protocol.KindCommand:
		err = s.command(line)
	default:
		err = fmt.Errorf("%w: kind %d", protocol.ErrUnknownLine, line.Kind)
	}

	if err != nil {
		s.update(func(sum *Summary) { sum.Errors++ })
	}
	return err
}

func (s *Session) command(line protocol.Line) error {
	switch line.Command {
	case protocol.CreateFileCmd:
		if err := s.persist(s.store.Create(line.Payload)); err != nil {
			return err
		}
		s.update(func(sum *Summary) { sum.File = line.Payload })
		log.Printf("Created file %s", line.Payload)

	case protocol.WriteHeaderCmd:
		return s.persist(s.store.WriteHeader(strings.Split(line.Payload, ",")))

	case protocol.WriteDataCmd:
		rec, err := protocol.ParseRecord(line.Payload)
		if err != nil {
			return err
		}
		if err := s.persist(s.store.WriteRecord(rec)); err != nil {
			return err
		}
		s.update(func(sum *Summary) { sum.Records++ })
		log.Printf("Saved %s ms | %.2f°C | %s", rec.Timestamp, rec.Snapshot.Temperature, rec.Status)
		for _, fn := range s.recordListeners() {
			fn(rec)
		}

	case protocol.WriteAlertCmd:
		msg, ts, err := protocol.ParseAlert(line.Payload)
		if err != nil {
			return err
		}
		if err := s.persist(s.store.WriteAlert(msg, ts)); err != nil {
			return err
		}
		s.update(func(sum *Summary) { sum.Alerts++ })
		log.Printf("Alert recorded: %s", msg)
		for _, fn := range s.alertListeners() {
			fn(msg, ts)
		}

	case protocol.FlushFileCmd:
		if err := s.persist(s.store.Flush()); err != nil {
			return err
		}
		s.update(func(sum *Summary) { sum.Flushes++ })

	default:
		return fmt.Errorf("%w: command %q", protocol.ErrUnknownLine, line.Command)
	}

	return nil
}

// persist drops mirror failures after counting them; the primary store
// already holds the data.
func (s *Session) persist(err error) error {
	if err == nil || !errors.Is(err, store.ErrMirror) {
		return err
	}
	s.update(func(sum *Summary) { sum.MirrorErrors++ })
	log.Printf("Mirror write failed: %v", err)
	return nil
}

func (s *Session) update(fn func(*Summary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.summary)
}

func (s *Session) recordListeners() []func(protocol.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onRecord
}

func (s *Session) alertListeners() []func(string, protocol.Millis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onAlert
}
