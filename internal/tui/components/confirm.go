// Package components holds the modal dialogs shown by the CLI.
package components

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tis24dev/savesync/internal/tui"
)

var modalCreatedHook func(*tview.Modal)

func notifyModalCreated(modal *tview.Modal) {
	if modalCreatedHook != nil {
		modalCreatedHook(modal)
	}
}

// Labels are the localized texts of modal buttons and hints.
type Labels struct {
	Yes      string
	No       string
	OK       string
	NavHint  string
	Continue string
}

// DefaultLabels are the English labels.
var DefaultLabels = Labels{
	Yes:      "Yes",
	No:       "No",
	OK:       "OK",
	NavHint:  "Use TAB or ←→ Arrows to switch | Press ENTER to select",
	Continue: "Press ENTER to continue",
}

func (l Labels) withDefaults() Labels {
	if l.Yes == "" {
		l.Yes = DefaultLabels.Yes
	}
	if l.No == "" {
		l.No = DefaultLabels.No
	}
	if l.OK == "" {
		l.OK = DefaultLabels.OK
	}
	if l.NavHint == "" {
		l.NavHint = DefaultLabels.NavHint
	}
	if l.Continue == "" {
		l.Continue = DefaultLabels.Continue
	}
	return l
}

// showModal styles a modal and makes it the application root.
func showModal(app *tui.App, title, message string, color tcell.Color, buttons []string, done func(label string)) *tview.Modal {
	modal := tview.NewModal().
		SetText(message).
		AddButtons(buttons).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			done(buttonLabel)
		})

	notifyModalCreated(modal)

	modal.SetBorder(true).
		SetTitle(" " + title + " ").
		SetTitleAlign(tview.AlignCenter).
		SetTitleColor(color).
		SetBorderColor(color).
		SetBackgroundColor(tcell.ColorBlack)

	app.SetRoot(modal, true).SetFocus(modal)
	return modal
}

// ShowConfirm displays a Yes/No confirmation modal
func ShowConfirm(app *tui.App, labels Labels, title, message string, onYes, onNo func()) {
	labels = labels.withDefaults()
	if !strings.Contains(message, "[yellow]") {
		message = message + "\n\n[yellow]" + labels.NavHint + "[white]"
	}

	showModal(app, title, message, tui.WarningYellow, []string{labels.Yes, labels.No}, func(label string) {
		switch label {
		case labels.Yes:
			if onYes != nil {
				onYes()
			}
		case labels.No:
			if onNo != nil {
				onNo()
			}
		}
		app.Stop()
	})
}

// Confirm runs a confirmation dialog to completion and reports the choice.
// An interrupted dialog returns tui.ErrAborted.
func Confirm(labels Labels, title, message string) (bool, error) {
	app := tui.NewApp()
	confirmed := false
	ShowConfirm(app, labels, title, message, func() { confirmed = true }, nil)
	if err := app.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
