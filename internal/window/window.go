package window

import (
	"context"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/pedal-editor/internal/board"
	"github.com/PixPMusic/pedal-editor/internal/config"
	"github.com/PixPMusic/pedal-editor/internal/dispatch"
	"github.com/PixPMusic/pedal-editor/internal/editor"
	"github.com/PixPMusic/pedal-editor/internal/pedal"
)

const noneOption = "(None)"

// MainWindow manages the main application window
type MainWindow struct {
	window  fyne.Window
	app     fyne.App
	cfg     *config.Config
	board   *board.Manager
	catalog *pedal.Catalog
	midi    *dispatch.Service
	session *editor.Session

	selectedID string
	live       bool // send control edits immediately instead of drafting

	// Board panel
	instanceList *widget.List

	// Output bar
	outputSelect *widget.Select
	statusLabel  *widget.Label

	// Editor panel
	deviceSelect  *widget.Select
	channelSelect *widget.Select
	controlsBox   *fyne.Container
	applyBtn      *widget.Button
	revertBtn     *widget.Button
	programBox    *fyne.Container
	snapshotList  *widget.List
}

// NewMainWindow creates the main application window
func NewMainWindow(app fyne.App, cfg *config.Config, b *board.Manager, catalog *pedal.Catalog, midi *dispatch.Service, session *editor.Session) *MainWindow {
	win := app.NewWindow("Pedal Editor")

	mw := &MainWindow{
		window:  win,
		app:     app,
		cfg:     cfg,
		board:   b,
		catalog: catalog,
		midi:    midi,
		session: session,
	}

	mw.setupUI()
	if insts := b.Instances(); len(insts) > 0 {
		mw.openInstance(insts[0].ID)
	}

	// Port hot-plug arrives on the gateway goroutine
	midi.OnChange(func() {
		fyne.Do(mw.refreshOutputs)
	})

	win.Resize(fyne.NewSize(960, 640))
	win.CenterOnScreen()

	win.SetCloseIntercept(func() {
		win.Hide()
	})

	return mw
}

// Show brings the window to front
func (mw *MainWindow) Show() {
	mw.window.Show()
	mw.window.RequestFocus()
}

func (mw *MainWindow) setupUI() {
	boardPanel := mw.createBoardPanel()
	editorPanel := mw.createEditorPanel()

	split := container.NewHSplit(boardPanel, editorPanel)
	split.Offset = 0.3

	mw.window.SetContent(container.NewBorder(mw.createOutputBar(), nil, nil, nil, split))
}

func (mw *MainWindow) createOutputBar() fyne.CanvasObject {
	header := widget.NewLabel("MIDI Output")
	header.TextStyle = fyne.TextStyle{Bold: true}

	mw.outputSelect = widget.NewSelect([]string{}, nil)
	mw.outputSelect.PlaceHolder = "Select..."

	mw.statusLabel = widget.NewLabel("")

	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		go func() {
			if err := mw.midi.Refresh(context.Background()); err != nil {
				log.Printf("Failed to refresh MIDI outputs: %v", err)
			}
		}()
	})

	mw.refreshOutputs()

	return container.NewVBox(
		container.NewBorder(nil, nil, header, refreshBtn, mw.outputSelect),
		mw.statusLabel,
		widget.NewSeparator(),
	)
}

// refreshOutputs mirrors the dispatcher's port list into the output select
func (mw *MainWindow) refreshOutputs() {
	ports := mw.midi.Outputs()
	names := make([]string, 0, len(ports)+1)
	names = append(names, noneOption)
	byName := make(map[string]string, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
		byName[p.Name] = p.ID
	}

	mw.outputSelect.OnChanged = nil
	mw.outputSelect.Options = names
	if p, ok := mw.midi.SelectedPort(); ok {
		mw.outputSelect.SetSelected(p.Name)
	} else {
		mw.outputSelect.SetSelected(noneOption)
	}
	mw.outputSelect.OnChanged = func(name string) {
		if name == noneOption {
			mw.midi.SelectOutput("")
			return
		}
		mw.midi.SelectOutput(byName[name])
		mw.cfg.LastOutput = name
		if err := mw.cfg.Save(); err != nil {
			log.Printf("Failed to save config: %v", err)
		}
	}
	mw.outputSelect.Refresh()

	if err := mw.midi.Err(); err != nil {
		mw.statusLabel.SetText(err.Error())
	} else if len(ports) == 0 {
		mw.statusLabel.SetText("No MIDI outputs found")
	} else {
		mw.statusLabel.SetText("")
	}
}

func (mw *MainWindow) showError(err error) {
	if err == nil {
		return
	}
	mw.statusLabel.SetText(err.Error())
	dialog.ShowError(err, mw.window)
}

// Refresh re-reads the output list and selection
func (mw *MainWindow) Refresh() {
	mw.refreshOutputs()
}
