// Package store persists what the device asks the host to record. The CSV
// sink reproduces the files the device names; SQLite and InfluxDB sinks mirror
// the same records for querying.
package store

import (
	"errors"
	"fmt"
	"log"

	"github.com/itohio/sensmon/pkg/protocol"
)

var (
	// ErrNoFile is returned when rows arrive before the device created a file.
	ErrNoFile = errors.New("no file created")
	// ErrMirror marks failures of secondary sinks after the primary one succeeded.
	ErrMirror = errors.New("mirror failed")
)

// Store receives the persistence commands of one device session.
type Store interface {
	Create(name string) error
	WriteHeader(columns []string) error
	WriteRecord(rec protocol.Record) error
	WriteAlert(msg string, ts protocol.Millis) error
	Flush() error
	Close() error
}

// Multi fans every call out to all sinks. The first sink is the primary one
// and its error is returned as is. Failures of the others are logged, do not
// stop the remaining sinks and are reported wrapped in ErrMirror.
type Multi []Store

// Ensure Multi implements Store.
var _ Store = Multi(nil)

func (m Multi) each(op string, fn func(Store) error) error {
	var primary error
	var mirrors []error
	for i, s := range m {
		err := fn(s)
		if err == nil {
			continue
		}
		log.Printf("store %d: %s failed: %v", i, op, err)
		if i == 0 {
			primary = fmt.Errorf("%s: %w", op, err)
			continue
		}
		mirrors = append(mirrors, err)
	}

	if primary != nil {
		return primary
	}
	if len(mirrors) > 0 {
		return fmt.Errorf("%s: %w: %w", op, ErrMirror, errors.Join(mirrors...))
	}
	return nil
}

func (m Multi) Create(name string) error {
	return m.each("create", func(s Store) error { return s.Create(name) })
}

func (m Multi) WriteHeader(columns []string) error {
	return m.each("write header", func(s Store) error { return s.WriteHeader(columns) })
}

func (m Multi) WriteRecord(rec protocol.Record) error {
	return m.each("write record", func(s Store) error { return s.WriteRecord(rec) })
}

func (m Multi) WriteAlert(msg string, ts protocol.Millis) error {
	return m.each("write alert", func(s Store) error { return s.WriteAlert(msg, ts) })
}

func (m Multi) Flush() error {
	return m.each("flush", func(s Store) error { return s.Flush() })
}

func (m Multi) Close() error {
	return m.each("close", func(s Store) error { return s.Close() })
}
