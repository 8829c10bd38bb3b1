package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/Portovedo/Depassivation/pkg/station"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createTestTab(state),
		createSimTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := station.Ports()
	portOptions := []string{}

	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	// Add current port if not in list
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

	portSelect := widget.NewSelect(portOptions, func(selected string) {})
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.Baud))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				state.cfg.Serial.Port = portSelect.Selected
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.Baud = baud
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createTestTab creates the Test configuration tab.
func createTestTab(state *appState) *container.TabItem {
	durationEntry := widget.NewEntry()
	durationEntry.SetText(state.cfg.Test.DefaultDuration.String())

	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Test.PassFailVoltage))

	historyEntry := widget.NewEntry()
	historyEntry.SetText(state.cfg.Test.HistoryFile)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Test Duration", Widget: durationEntry},
			{Text: "Pass/Fail Voltage (V)", Widget: thresholdEntry},
			{Text: "History File", Widget: historyEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(durationEntry.Text); err == nil && d >= time.Second {
				state.cfg.Test.DefaultDuration = d
			}
			if v, err := strconv.ParseFloat(thresholdEntry.Text, 64); err == nil && v > 0 {
				state.cfg.Test.PassFailVoltage = v
			}
			// Applies on next start; the open run log keeps its path.
			if historyEntry.Text != "" {
				state.cfg.Test.HistoryFile = historyEntry.Text
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Test", form)
}

// createSimTab creates the simulated battery configuration tab.
func createSimTab(state *appState) *container.TabItem {
	ocvEntry := widget.NewEntry()
	ocvEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Sim.OpenCircuitVoltage))

	rIntEntry := widget.NewEntry()
	rIntEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Sim.InternalResistance))

	rLoadEntry := widget.NewEntry()
	rLoadEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Sim.LoadResistance))

	recoveryEntry := widget.NewEntry()
	recoveryEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Sim.RecoveryRate))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.6f", state.cfg.Sim.NoiseLevel))

	tickEntry := widget.NewEntry()
	tickEntry.SetText(state.cfg.Sim.TickInterval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Open Circuit Voltage (V)", Widget: ocvEntry},
			{Text: "Internal Resistance (Ω)", Widget: rIntEntry},
			{Text: "Load Resistance (Ω)", Widget: rLoadEntry},
			{Text: "Recovery Rate (Ω/s)", Widget: recoveryEntry},
			{Text: "Noise Level (V)", Widget: noiseEntry},
			{Text: "Tick Interval", Widget: tickEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(ocvEntry.Text, 64); err == nil && v > 0 {
				state.cfg.Sim.OpenCircuitVoltage = v
			}
			if v, err := strconv.ParseFloat(rIntEntry.Text, 64); err == nil && v > 0 {
				state.cfg.Sim.InternalResistance = v
			}
			if v, err := strconv.ParseFloat(rLoadEntry.Text, 64); err == nil && v > 0 {
				state.cfg.Sim.LoadResistance = v
			}
			if v, err := strconv.ParseFloat(recoveryEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Sim.RecoveryRate = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Sim.NoiseLevel = v
			}
			if d, err := time.ParseDuration(tickEntry.Text); err == nil && d > 0 {
				state.cfg.Sim.TickInterval = d
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Simulation", form)
}
