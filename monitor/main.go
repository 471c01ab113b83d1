package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/sensmon/pkg/config"
	"github.com/itohio/sensmon/pkg/scope"
	"github.com/itohio/sensmon/pkg/trend"
)

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use simulated device instead of serial port")
		headlessFlag = flag.Bool("headless", false, "Capture without the GUI until interrupted")
		outFlag      = flag.String("out", "", "Output directory override for the CSV and alerts files")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line overrides
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *outFlag != "" {
		cfg.Storage.OutputDir = *outFlag
	}

	if *headlessFlag {
		if err := runHeadless(cfg, *mockFlag); err != nil {
			log.Fatal(err)
		}
		return
	}

	runGUI(cfg, *configFlag, *mockFlag)
}

// runHeadless captures until SIGINT/SIGTERM or until the device goes away.
func runHeadless(cfg *config.Config, useMock bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr := trend.New(cfg)
	device := newDevice(cfg, useMock)
	chain, err := startChain(cfg, device, tr)
	if err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	log.Printf("Capturing into %s (Ctrl+C to stop)", cfg.Storage.OutputDir)

	select {
	case <-ctx.Done():
		log.Printf("Capture interrupted by user")
	case sum := <-chain.done:
		// The device closed the stream; hand the summary back for close().
		chain.done <- sum
	}

	report(cfg, chain.close(), tr.Stats())
	return nil
}

func runGUI(cfg *config.Config, cfgPath string, useMock bool) {
	// Create Fyne application
	application := app.NewWithID("com.itohio.sensmon")

	// Create main window
	window := application.NewWindow("Industrial Sensor Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	// Create application state
	state := &appState{
		cfg:     cfg,
		cfgPath: cfgPath,
		trend:   trend.New(cfg),
		window:  window,
		useMock: useMock,
	}

	// Create toolbar
	toolbar := createToolbar(state)

	// Create scope widget for graph display
	state.scopeWidget = scope.New(cfg)
	state.trend.OnUpdate(scopeUpdater(state.scopeWidget))

	state.statusLabel = widget.NewLabel("Disconnected")

	// Border layout with toolbar at top, status at bottom and scope as content
	content := container.NewBorder(
		toolbar,
		state.statusLabel,
		nil,
		nil,
		state.scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		disconnect(state)
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	cfgPath     string
	trend       *trend.Trend
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	statusLabel *widget.Label
	useMock     bool
	chain       *captureChain // Current capture chain (nil if not connected)
}

// createToolbar creates the application toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("Connect", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		nil, // right
		nil, // center (spacer)
	)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.chain != nil {
		disconnect(state)
		return
	}

	device := newDevice(state.cfg, state.useMock)
	chain, err := startChain(state.cfg, device, state.trend)
	if err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to simulated device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}

	state.chain = chain
	state.connectBtn.SetText("Disconnect")
	state.connectBtn.SetIcon(theme.LogoutIcon())
	if state.useMock {
		state.statusLabel.SetText("Connected to simulated device, writing to " + state.cfg.Storage.OutputDir)
	} else {
		state.statusLabel.SetText("Connected to " + state.cfg.Serial.Port + ", writing to " + state.cfg.Storage.OutputDir)
	}
}

// disconnect gracefully closes the capture chain.
func disconnect(state *appState) {
	if state.chain == nil {
		return
	}

	sum := state.chain.close()
	state.chain = nil
	state.trend.Stop()

	state.connectBtn.SetText("Connect")
	state.connectBtn.SetIcon(theme.LoginIcon())
	report(state.cfg, sum, state.trend.Stats())
	state.statusLabel.SetText(fmt.Sprintf("Disconnected: %d records, %d alerts saved to %s", sum.Records, sum.Alerts, sum.File))
}
