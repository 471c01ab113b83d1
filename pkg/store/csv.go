package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/itohio/sensmon/pkg/protocol"
)

const alertTimeLayout = "2006-01-02 15:04:05"

// AlertsFileName returns the name of the alerts log paired with a CSV file.
func AlertsFileName(name string) string {
	return strings.TrimSuffix(name, ".csv") + "_alerts.txt"
}

// CSV writes readings into the file the device names and alerts into a
// companion text file. Every row is flushed as it is written so a killed
// capture loses nothing.
type CSV struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	data   *os.File
	writer *csv.Writer
	alerts *os.File
}

// Ensure CSV implements Store.
var _ Store = (*CSV)(nil)

// NewCSV creates a CSV store writing into dir, creating it if needed.
func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output dir: %w", err)
	}
	return &CSV{dir: dir, now: time.Now}, nil
}

// Create truncates (or creates) the data file and its alerts file. A file
// from a previous session is closed first.
func (c *CSV) Create(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeFiles()

	// The device controls the name; keep it inside the output directory.
	name = filepath.Base(name)

	data, err := os.Create(filepath.Join(c.dir, name))
	if err != nil {
		return fmt.Errorf("cannot create data file: %w", err)
	}

	alerts, err := os.Create(filepath.Join(c.dir, AlertsFileName(name)))
	if err != nil {
		data.Close()
		return fmt.Errorf("cannot create alerts file: %w", err)
	}

	if _, err := fmt.Fprintf(alerts, "=== SYSTEM ALERTS - %s ===\n\n", c.now().Format(alertTimeLayout)); err != nil {
		data.Close()
		alerts.Close()
		return fmt.Errorf("cannot write alerts header: %w", err)
	}

	c.data = data
	c.writer = csv.NewWriter(data)
	c.alerts = alerts
	return nil
}

func (c *CSV) WriteHeader(columns []string) error {
	return c.writeRow(columns)
}

func (c *CSV) WriteRecord(rec protocol.Record) error {
	return c.writeRow(rec.Fields())
}

func (c *CSV) writeRow(row []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		return ErrNoFile
	}

	if err := c.writer.Write(row); err != nil {
		return err
	}
	c.writer.Flush()
	return c.writer.Error()
}

// WriteAlert appends msg stamped with the host wall-clock time. The device
// uptime is already part of msg.
func (c *CSV) WriteAlert(msg string, ts protocol.Millis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.alerts == nil {
		return ErrNoFile
	}

	_, err := fmt.Fprintf(c.alerts, "[%s] %s - %s\n", c.now().Format(alertTimeLayout), msg, ts)
	return err
}

// Flush forces both files to stable storage.
func (c *CSV) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		return ErrNoFile
	}

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return err
	}
	if err := c.data.Sync(); err != nil {
		return err
	}
	return c.alerts.Sync()
}

// Close flushes and closes the current files.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeFiles()
}

func (c *CSV) closeFiles() error {
	var err error
	if c.writer != nil {
		c.writer.Flush()
		err = c.writer.Error()
		c.writer = nil
	}
	if c.data != nil {
		if cerr := c.data.Close(); err == nil {
			err = cerr
		}
		c.data = nil
	}
	if c.alerts != nil {
		if cerr := c.alerts.Close(); err == nil {
			err = cerr
		}
		c.alerts = nil
	}
	return err
}
