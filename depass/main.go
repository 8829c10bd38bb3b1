package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Portovedo/Depassivation/pkg/config"
	"github.com/Portovedo/Depassivation/pkg/record"
	"github.com/Portovedo/Depassivation/pkg/scope"
	"github.com/Portovedo/Depassivation/pkg/station"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		simFlag    = flag.Bool("sim", false, "Use simulated fixture instead of serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	history, err := record.LoadHistory(cfg.Test.HistoryFile)
	if err != nil {
		log.Printf("Failed to load run history: %v", err)
		history = record.NewHistory(cfg.Test.HistoryFile)
	}

	application := app.NewWithID("com.portovedo.depassivation")

	window := application.NewWindow("Battery Depassivation Station")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:     cfg,
		window:  window,
		useSim:  *simFlag,
		history: history,
	}

	toolbar := createToolbar(state)
	statusBar := createStatusBar(state)

	chart := scope.New()
	state.chart = chart

	logView := createLogView(state)

	split := container.NewVSplit(chart, logView)
	split.SetOffset(0.8)

	content := container.NewBorder(
		toolbar,
		statusBar,
		nil,
		nil,
		split,
	)

	window.SetContent(content)
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg    *config.Config
	device station.Device
	chart  *scope.Widget
	window fyne.Window
	useSim bool

	connectBtn *widget.Button
	startBtn   *widget.Button
	abortBtn   *widget.Button
	liveBtn    *widget.Button
	loadBtn    *widget.Button
	exportBtn  *widget.Button

	fixtureLabel *widget.Label
	voltageLabel *widget.Label
	currentLabel *widget.Label
	resLabel     *widget.Label
	verdictLabel *widget.Label

	logLabel  *widget.Label
	logScroll *container.Scroll
	logLines  []string

	// Run accumulation and the persisted run log (protected by runMu;
	// written by the reports goroutine)
	runMu   sync.Mutex
	run     *record.Run
	history *record.History

	liveView bool
	loadOn   bool

	readerDone chan struct{} // closed when the reports goroutine exits

	// Throttling for chart updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar: connection and settings on
// the left, test controls on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	historyBtn := widget.NewButtonWithIcon("", theme.HistoryIcon(), func() {
		showHistoryDialog(state)
	})

	startBtn := widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		handleStart(state)
	})
	startBtn.Disable()
	state.startBtn = startBtn

	abortBtn := widget.NewButtonWithIcon("Abort", theme.MediaStopIcon(), func() {
		handleAbort(state)
	})
	abortBtn.Disable()
	state.abortBtn = abortBtn

	liveBtn := widget.NewButtonWithIcon("Live", theme.VisibilityIcon(), func() {
		handleLiveToggle(state)
	})
	liveBtn.Disable()
	state.liveBtn = liveBtn

	loadBtn := widget.NewButtonWithIcon("Load", theme.RadioButtonIcon(), func() {
		handleLoadToggle(state)
	})
	loadBtn.Disable()
	state.loadBtn = loadBtn

	exportBtn := widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), func() {
		handleExport(state)
	})
	exportBtn.Disable()
	state.exportBtn = exportBtn

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn, historyBtn),
		container.NewHBox(startBtn, abortBtn, liveBtn, loadBtn, exportBtn),
		nil,
	)
}

// createStatusBar creates the readout labels along the bottom edge.
func createStatusBar(state *appState) fyne.CanvasObject {
	state.fixtureLabel = widget.NewLabel("Disconnected")
	state.voltageLabel = widget.NewLabel("-- V")
	state.currentLabel = widget.NewLabel("-- mA")
	state.resLabel = widget.NewLabel("-- Ω")
	state.verdictLabel = widget.NewLabel("")
	state.verdictLabel.TextStyle = fyne.TextStyle{Bold: true}

	return container.NewHBox(
		state.fixtureLabel,
		widget.NewSeparator(),
		state.voltageLabel,
		state.currentLabel,
		state.resLabel,
		widget.NewSeparator(),
		state.verdictLabel,
	)
}

// createLogView creates the scrolling protocol log under the chart.
func createLogView(state *appState) fyne.CanvasObject {
	state.logLabel = widget.NewLabel("")
	state.logLabel.TextStyle = fyne.TextStyle{Monospace: true}
	state.logScroll = container.NewVScroll(state.logLabel)
	return state.logScroll
}

// maxLogLines bounds the protocol log so long sessions don't grow without
// limit.
const maxLogLines = 500

// appendLog adds one line to the protocol log. Must run on the main thread.
func appendLog(state *appState, line string) {
	state.logLines = append(state.logLines, line)
	if len(state.logLines) > maxLogLines {
		state.logLines = state.logLines[len(state.logLines)-maxLogLines:]
	}
	state.logLabel.SetText(strings.Join(state.logLines, "\n"))
	state.logScroll.ScrollToBottom()
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect; closing the device ends the reports stream, which
		// lets the reader goroutine drain and exit.
		state.device.Close()
		if state.readerDone != nil {
			<-state.readerDone
			state.readerDone = nil
		}
		state.device = nil
		state.liveView = false
		state.loadOn = false
		setControlsConnected(state, false)
		state.fixtureLabel.SetText("Disconnected")
		if state.useSim {
			fmt.Println("Disconnected from simulated fixture")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	var device station.Device
	if state.useSim {
		device = station.NewSim(&state.cfg.Sim)
		fmt.Println("Using simulated fixture")
	} else {
		device = station.NewSerial(state.cfg.Serial.Port, state.cfg.Serial.Baud, station.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useSim {
			dialog.ShowError(fmt.Errorf("failed to start simulated fixture: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useSim {
		fmt.Println("Connected to simulated fixture")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	setControlsConnected(state, true)
	state.fixtureLabel.SetText("Connected")

	done := make(chan struct{})
	state.readerDone = done
	go func() {
		defer close(done)
		processReports(state, device.Reports())
	}()
}

func setControlsConnected(state *appState, connected bool) {
	if connected {
		state.startBtn.Enable()
		state.abortBtn.Enable()
		state.liveBtn.Enable()
	} else {
		state.startBtn.Disable()
		state.abortBtn.Disable()
		state.liveBtn.Disable()
		state.loadBtn.Disable()
	}
}

// handleStart begins a test of the configured duration and resets the run.
func handleStart(state *appState) {
	if state.device == nil {
		return
	}
	if err := state.device.StartTest(state.cfg.Test.DefaultDuration); err != nil {
		dialog.ShowError(err, state.window)
	}
}

func handleAbort(state *appState) {
	if state.device == nil {
		return
	}
	if err := state.device.Abort(); err != nil {
		dialog.ShowError(err, state.window)
	}
}

// handleLiveToggle switches the fixture between live view and idle.
func handleLiveToggle(state *appState) {
	if state.device == nil {
		return
	}
	next := !state.liveView
	if err := state.device.SetLive(next); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	state.liveView = next
	// Manual load control is only honored in live view, and the fixture
	// drops the load on every live view entry and exit.
	state.loadOn = false
	if next {
		state.loadBtn.Enable()
		state.fixtureLabel.SetText("Live view")
	} else {
		state.loadBtn.Disable()
		state.fixtureLabel.SetText("Connected")
	}
}

func handleLoadToggle(state *appState) {
	if state.device == nil {
		return
	}
	next := !state.loadOn
	if err := state.device.SetLoad(next); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	state.loadOn = next
}

// handleExport saves the current run as CSV.
func handleExport(state *appState) {
	state.runMu.Lock()
	run := state.run
	state.runMu.Unlock()
	if run == nil || run.Len() == 0 {
		dialog.ShowInformation("Export", "No run data to export.", state.window)
		return
	}

	dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		if wc == nil {
			return
		}
		defer wc.Close()
		if err := run.WriteCSV(wc); err != nil {
			dialog.ShowError(fmt.Errorf("failed to export run: %w", err), state.window)
		}
	}, state.window)
}

// processReports consumes the device report stream until it closes. Widget
// updates happen on the main thread via fyne.Do.
func processReports(state *appState, reports <-chan station.Report) {
	for r := range reports {
		switch r.Kind {
		case station.ReportProcessStart:
			state.runMu.Lock()
			state.run = record.NewRun(time.Now())
			state.runMu.Unlock()
			fyne.Do(func() {
				appendLog(state, "Test started.")
				state.fixtureLabel.SetText("Test running")
				state.verdictLabel.SetText("")
				state.exportBtn.Disable()
				state.chart.UpdateRun(nil, state.cfg.Test.PassFailVoltage)
			})

		case station.ReportData:
			p, _ := record.PointFromReport(r)
			state.runMu.Lock()
			if state.run == nil {
				state.run = record.NewRun(time.Now())
			}
			state.run.Add(p)
			points := state.run.Points()
			state.runMu.Unlock()
			elapsed := r.Elapsed
			fyne.Do(func() {
				state.fixtureLabel.SetText(fmt.Sprintf("Test running (%.1f s)", elapsed.Seconds()))
			})
			state.updateReadout(r)
			state.updateChart(points)

		case station.ReportLiveData:
			state.updateReadout(r)

		case station.ReportProcessEnd:
			msg := r.Message
			state.runMu.Lock()
			run := state.run
			if run != nil {
				// Every finished test lands in the persistent run log,
				// aborted ones included.
				sum := run.Summarize(state.cfg.Test.PassFailVoltage)
				if err := state.history.Append(run, sum); err != nil {
					log.Printf("Failed to archive run: %v", err)
				}
			}
			state.runMu.Unlock()
			fyne.Do(func() {
				appendLog(state, msg)
				state.fixtureLabel.SetText(msg)
				if run != nil && run.Len() > 0 {
					s := run.Summarize(state.cfg.Test.PassFailVoltage)
					state.verdictLabel.SetText(fmt.Sprintf("%s (min %.3f V)", s.Verdict(), s.MinVoltage))
					state.exportBtn.Enable()
				}
			})

		case station.ReportButtonPress:
			btn := r.Button
			fyne.Do(func() {
				appendLog(state, "Fixture button pressed: "+btn)
			})

		case station.ReportFatal:
			msg := r.Message
			fyne.Do(func() {
				appendLog(state, "FATAL: "+msg)
				dialog.ShowError(fmt.Errorf("fixture fault: %s", msg), state.window)
				state.fixtureLabel.SetText("FAULT")
			})

		case station.ReportLog:
			msg := r.Message
			fyne.Do(func() {
				appendLog(state, msg)
			})
		}
	}
}

// updateReadout refreshes the numeric labels from a DATA or LIVE_DATA report.
func (state *appState) updateReadout(r station.Report) {
	fyne.Do(func() {
		state.voltageLabel.SetText(fmt.Sprintf("%.3f V", r.Voltage))
		state.currentLabel.SetText(fmt.Sprintf("%.2f mA", r.CurrentMA))
		state.resLabel.SetText(fmt.Sprintf("%.2f Ω", r.ResistanceOhm))
	})
}

// updateChart pushes the run into the strip chart, throttled so a fast
// sample stream cannot overwhelm the UI.
func (state *appState) updateChart(points []record.Point) {
	const updateInterval = 16 * time.Millisecond // ~60 FPS

	state.updateMu.Lock()
	now := time.Now()
	tooSoon := now.Sub(state.lastUpdateTime) < updateInterval
	if !tooSoon {
		state.lastUpdateTime = now
	}
	state.updateMu.Unlock()
	if tooSoon {
		return
	}

	fyne.Do(func() {
		state.chart.UpdateRun(points, state.cfg.Test.PassFailVoltage)
	})
}
