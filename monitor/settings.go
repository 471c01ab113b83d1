package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/sensmon/pkg/capture"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createStorageTab(state),
		createDisplayTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 400))
	d.Show()
}

// saveConfig writes the configuration back to the file it was loaded from.
func saveConfig(state *appState) {
	if err := state.cfg.Save(state.cfgPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := capture.Ports()
	portOptions := []string{}
	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			wasConnected := state.chain != nil
			changed := false

			if portSelect.Selected != "" && portSelect.Selected != state.cfg.Serial.Port {
				state.cfg.Serial.Port = portSelect.Selected
				changed = true
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud != state.cfg.Serial.BaudRate {
				state.cfg.Serial.BaudRate = baud
				changed = true
			}
			saveConfig(state)

			// Reconnect with the new port settings
			if changed && wasConnected && !state.useMock {
				disconnect(state)
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createStorageTab creates the Storage configuration tab. Changes apply to
// the next connection.
func createStorageTab(state *appState) *container.TabItem {
	outputEntry := widget.NewEntry()
	outputEntry.SetText(state.cfg.Storage.OutputDir)

	sqliteEntry := widget.NewEntry()
	sqliteEntry.SetText(state.cfg.Storage.SQLite.Path)
	sqliteEntry.SetPlaceHolder("disabled")

	influxURLEntry := widget.NewEntry()
	influxURLEntry.SetText(state.cfg.Storage.Influx.URL)
	influxURLEntry.SetPlaceHolder("disabled")

	influxTokenEntry := widget.NewPasswordEntry()
	influxTokenEntry.SetText(state.cfg.Storage.Influx.Token)

	influxOrgEntry := widget.NewEntry()
	influxOrgEntry.SetText(state.cfg.Storage.Influx.Org)

	influxBucketEntry := widget.NewEntry()
	influxBucketEntry.SetText(state.cfg.Storage.Influx.Bucket)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Output Directory", Widget: outputEntry},
			{Text: "SQLite Database", Widget: sqliteEntry},
			{Text: "InfluxDB URL", Widget: influxURLEntry},
			{Text: "InfluxDB Token", Widget: influxTokenEntry},
			{Text: "InfluxDB Org", Widget: influxOrgEntry},
			{Text: "InfluxDB Bucket", Widget: influxBucketEntry},
		},
		OnSubmit: func() {
			if outputEntry.Text != "" {
				state.cfg.Storage.OutputDir = outputEntry.Text
			}
			state.cfg.Storage.SQLite.Path = sqliteEntry.Text
			state.cfg.Storage.Influx.URL = influxURLEntry.Text
			state.cfg.Storage.Influx.Token = influxTokenEntry.Text
			state.cfg.Storage.Influx.Org = influxOrgEntry.Text
			state.cfg.Storage.Influx.Bucket = influxBucketEntry.Text
			saveConfig(state)
		},
	}

	return container.NewTabItem("Storage", form)
}

// createDisplayTab creates the Display configuration tab.
func createDisplayTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Display.WindowSeconds))

	maxPointsEntry := widget.NewEntry()
	maxPointsEntry.SetText(strconv.Itoa(state.cfg.Display.MaxPoints))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowEntry},
			{Text: "Max Points", Widget: maxPointsEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowEntry.Text, 64); err == nil && ws > 0 {
				state.cfg.Display.WindowSeconds = ws
			}
			if mp, err := strconv.Atoi(maxPointsEntry.Text); err == nil && mp > 0 {
				state.cfg.Display.MaxPoints = mp
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Display", form)
}

// createMockTab creates the simulated device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(state.cfg.Mock.Interval.String())

	baseTempEntry := widget.NewEntry()
	baseTempEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.BaseTemp))

	tempSwingEntry := widget.NewEntry()
	tempSwingEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.TempSwing))

	baseHumidEntry := widget.NewEntry()
	baseHumidEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.BaseHumid))

	humidSwingEntry := widget.NewEntry()
	humidSwingEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.HumidSwing))

	shakeLevelEntry := widget.NewEntry()
	shakeLevelEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.ShakeLevel))

	shakePeriodEntry := widget.NewEntry()
	shakePeriodEntry.SetText(state.cfg.Mock.ShakePeriod.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Interval", Widget: intervalEntry},
			{Text: "Base Temperature (°C)", Widget: baseTempEntry},
			{Text: "Temperature Swing (°C)", Widget: tempSwingEntry},
			{Text: "Base Humidity (%)", Widget: baseHumidEntry},
			{Text: "Humidity Swing (%)", Widget: humidSwingEntry},
			{Text: "Shake Level (g)", Widget: shakeLevelEntry},
			{Text: "Shake Period", Widget: shakePeriodEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(intervalEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.Interval = d
			}
			if v, err := strconv.ParseFloat(baseTempEntry.Text, 64); err == nil {
				state.cfg.Mock.BaseTemp = v
			}
			if v, err := strconv.ParseFloat(tempSwingEntry.Text, 64); err == nil {
				state.cfg.Mock.TempSwing = v
			}
			if v, err := strconv.ParseFloat(baseHumidEntry.Text, 64); err == nil {
				state.cfg.Mock.BaseHumid = v
			}
			if v, err := strconv.ParseFloat(humidSwingEntry.Text, 64); err == nil {
				state.cfg.Mock.HumidSwing = v
			}
			if v, err := strconv.ParseFloat(shakeLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.ShakeLevel = v
			}
			if d, err := time.ParseDuration(shakePeriodEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.ShakePeriod = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
