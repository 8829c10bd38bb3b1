package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/Portovedo/Depassivation/pkg/record"
)

// showHistoryDialog lists the archived runs, newest first. Selecting a run
// re-plots its point series on the chart and restores its verdict.
func showHistoryDialog(state *appState) {
	state.runMu.Lock()
	entries := append([]record.Entry(nil), state.history.Entries()...)
	state.runMu.Unlock()

	if len(entries) == 0 {
		dialog.ShowInformation("Run History", "No archived runs yet.", state.window)
		return
	}

	newestFirst := func(i int) record.Entry {
		return entries[len(entries)-1-i]
	}

	list := widget.NewList(
		func() int {
			return len(entries)
		},
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.TextStyle = fyne.TextStyle{Monospace: true}
			return label
		},
		func(i widget.ListItemID, item fyne.CanvasObject) {
			e := newestFirst(i)
			item.(*widget.Label).SetText(fmt.Sprintf("%s  %-7s  min %.3f V  %d pts",
				e.Started.Format("2006-01-02 15:04:05"), e.Verdict, e.MinVoltage, len(e.Points)))
		},
	)
	list.OnSelected = func(i widget.ListItemID) {
		e := newestFirst(i)
		state.chart.UpdateRun(e.Points, e.PassThreshold)
		if len(e.Points) > 0 {
			state.verdictLabel.SetText(fmt.Sprintf("%s (min %.3f V)", e.Verdict, e.MinVoltage))
		} else {
			state.verdictLabel.SetText(e.Verdict)
		}
	}

	d := dialog.NewCustom("Run History", "Close", list, state.window)
	d.Resize(fyne.NewSize(600, 400))
	d.Show()
}
