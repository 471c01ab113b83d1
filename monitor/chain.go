package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/itohio/sensmon/pkg/capture"
	"github.com/itohio/sensmon/pkg/config"
	"github.com/itohio/sensmon/pkg/store"
	"github.com/itohio/sensmon/pkg/trend"
)

// captureChain tracks the components of a running capture for graceful shutdown.
type captureChain struct {
	device  capture.Device
	store   store.Store
	session *capture.Session
	done    chan capture.Summary // Receives the summary when the session goroutine exits
}

// newDevice creates the serial device or the simulated one.
func newDevice(cfg *config.Config, useMock bool) capture.Device {
	if useMock {
		return capture.NewMock(&cfg.Mock)
	}
	return capture.New(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.BufferSize)
}

// openStore opens the CSV store and the optional database mirrors.
func openStore(cfg *config.Config) (store.Store, error) {
	csvStore, err := store.NewCSV(cfg.Storage.OutputDir)
	if err != nil {
		return nil, err
	}
	sinks := store.Multi{csvStore}

	if path := cfg.Storage.SQLite.Path; path != "" {
		db, err := store.NewSQLite(path)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, db)
		log.Printf("Mirroring readings to SQLite database %s", path)
	}

	if influx := cfg.Storage.Influx; influx.URL != "" {
		sinks = append(sinks, store.NewInflux(influx))
		log.Printf("Mirroring readings to InfluxDB %s, bucket %s", influx.URL, influx.Bucket)
	}

	if len(sinks) == 1 {
		return csvStore, nil
	}
	return sinks, nil
}

// startChain connects the device and starts a session feeding the store and
// the trend buffer. tr may be nil in headless mode.
func startChain(cfg *config.Config, device capture.Device, tr *trend.Trend) (*captureChain, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := device.Connect(); err != nil {
		st.Close()
		return nil, err
	}

	session := capture.NewSession(st)
	if tr != nil {
		tr.ResetShutdown()
		session.OnRecord(tr.AddRecord)
		session.OnAlert(tr.AddAlert)
	}

	chain := &captureChain{
		device:  device,
		store:   st,
		session: session,
		done:    make(chan capture.Summary, 1),
	}

	lines := device.Lines()
	go func() {
		chain.done <- session.Run(lines)
	}()

	return chain, nil
}

// close stops the device, waits for the session to drain and closes the store.
func (c *captureChain) close() capture.Summary {
	if c == nil {
		return capture.Summary{}
	}

	if err := c.device.Close(); err != nil {
		log.Printf("Error closing device: %v", err)
	}

	sum := <-c.done

	if err := c.store.Close(); err != nil {
		log.Printf("Error closing storage: %v", err)
	}

	return sum
}

// outputFiles describes the data and alerts files of a capture with their sizes.
func outputFiles(dir, name string) []string {
	if name == "" {
		return nil
	}

	var out []string
	for _, file := range []string{filepath.Base(name), store.AlertsFileName(filepath.Base(name))} {
		path := filepath.Join(dir, file)
		info, err := os.Stat(path)
		if err != nil {
			out = append(out, path+" (missing)")
			continue
		}
		out = append(out, fmt.Sprintf("%s (%d bytes)", path, info.Size()))
	}
	return out
}

// describeStats renders the trend window summary for the log.
func describeStats(st trend.Stats) string {
	if st.Count == 0 {
		return "no readings in window"
	}
	return fmt.Sprintf("%d readings (NORMAL %d, ALERTA %d, CRITICO %d), temperature %.1f..%.1f°C, max vibration %.2fg",
		st.Count, st.ByStatus[0], st.ByStatus[1], st.ByStatus[2], st.MinTemp, st.MaxTemp, st.MaxVibration)
}

// report logs the end of a capture.
func report(cfg *config.Config, sum capture.Summary, st trend.Stats) {
	log.Printf("Capture summary: %d records, %d alerts, %d flushes, %d errors, %d mirror errors",
		sum.Records, sum.Alerts, sum.Flushes, sum.Errors, sum.MirrorErrors)
	log.Printf("Last window: %s", describeStats(st))
	for _, f := range outputFiles(cfg.Storage.OutputDir, sum.File) {
		log.Printf("Generated %s", f)
	}
}
