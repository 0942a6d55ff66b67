package window

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/pedal-editor/internal/board"
	"github.com/PixPMusic/pedal-editor/internal/midi"
	"github.com/PixPMusic/pedal-editor/internal/pedal"
)

// ============ EDITOR PANEL ============

func (mw *MainWindow) createEditorPanel() fyne.CanvasObject {
	devices := append([]string{noneOption}, mw.catalog.Devices()...)
	mw.deviceSelect = widget.NewSelect(devices, nil)
	mw.deviceSelect.PlaceHolder = "Pedal"

	channels := make([]string, 0, midi.MaxChannel)
	for c := midi.MinChannel; c <= midi.MaxChannel; c++ {
		channels = append(channels, strconv.Itoa(int(c)))
	}
	mw.channelSelect = widget.NewSelect(channels, nil)
	mw.channelSelect.PlaceHolder = "Channel"

	liveCheck := widget.NewCheck("Send while editing", func(on bool) { mw.live = on })

	header := container.NewGridWithColumns(3,
		container.NewBorder(nil, nil, widget.NewLabel("Pedal"), nil, mw.deviceSelect),
		container.NewBorder(nil, nil, widget.NewLabel("Channel"), nil, mw.channelSelect),
		liveCheck,
	)

	mw.controlsBox = container.NewVBox()

	mw.applyBtn = widget.NewButtonWithIcon("Apply", theme.ConfirmIcon(), func() {
		mw.showError(mw.session.ApplyDraft())
		mw.refreshControls()
	})
	mw.applyBtn.Importance = widget.HighImportance
	mw.revertBtn = widget.NewButtonWithIcon("Revert", theme.ContentUndoIcon(), func() {
		mw.session.Revert()
		mw.refreshControls()
	})

	mw.programBox = container.NewVBox()

	tabs := container.NewAppTabs(
		container.NewTabItem("Controls", container.NewBorder(nil,
			container.NewVBox(widget.NewSeparator(), container.NewHBox(mw.applyBtn, mw.revertBtn)),
			nil, nil,
			container.NewVScroll(mw.controlsBox),
		)),
		container.NewTabItem("Programs", mw.programBox),
		container.NewTabItem("Snapshots", mw.createSnapshotsTab()),
	)

	return container.NewBorder(container.NewVBox(header, widget.NewSeparator()), nil, nil, nil, tabs)
}

// openInstance focuses an instance and rebuilds the editor for its profile
func (mw *MainWindow) openInstance(id string) {
	inst, ok := mw.board.Instance(id)
	if !ok {
		return
	}
	mw.selectedID = id
	mw.session.Open(inst)
	mw.selectListRow()

	mw.deviceSelect.OnChanged = nil
	if inst.Device == "" {
		mw.deviceSelect.SetSelected(noneOption)
	} else {
		mw.deviceSelect.SetSelected(inst.Device)
	}
	mw.deviceSelect.OnChanged = func(name string) {
		device := name
		if name == noneOption {
			device = ""
		}
		mw.updateInstance(board.Patch{Device: &device})
	}

	mw.channelSelect.OnChanged = nil
	mw.channelSelect.SetSelected(strconv.Itoa(int(inst.Channel)))
	mw.channelSelect.OnChanged = func(s string) {
		if n, err := strconv.Atoi(s); err == nil {
			mw.updateInstance(board.Patch{Channel: &n})
		}
	}

	mw.refreshControls()
	mw.refreshPrograms()
	mw.snapshotList.Refresh()
}

func (mw *MainWindow) updateInstance(patch board.Patch) {
	mw.board.UpdateInstance(mw.selectedID, patch)
	mw.instanceList.Refresh()
	mw.openInstance(mw.selectedID)
}

// refreshControls rebuilds one widget per visible control from the draft values
func (mw *MainWindow) refreshControls() {
	mw.controlsBox.RemoveAll()
	profile := mw.session.Profile()
	if profile == nil {
		mw.controlsBox.Add(widget.NewLabel("Choose a pedal to edit its controls."))
	} else {
		for _, c := range pedal.VisibleControls(profile) {
			mw.controlsBox.Add(mw.controlRow(c))
		}
		for _, note := range profile.Notes {
			n := widget.NewLabel(note)
			n.Wrapping = fyne.TextWrapWord
			mw.controlsBox.Add(n)
		}
	}
	mw.controlsBox.Refresh()
	mw.updateDirty()
}

func (mw *MainWindow) updateDirty() {
	if mw.session.Dirty() {
		mw.applyBtn.Enable()
		mw.revertBtn.Enable()
	} else {
		mw.applyBtn.Disable()
		mw.revertBtn.Disable()
	}
}

// edit routes a widget change to the draft, or straight to the device in live mode
func (mw *MainWindow) edit(id string, value int) {
	var err error
	if mw.live {
		err = mw.session.Send(id, value)
	} else {
		err = mw.session.SetDraft(id, value)
	}
	if err != nil {
		mw.statusLabel.SetText(err.Error())
	}
	mw.updateDirty()
}

func (mw *MainWindow) controlRow(c pedal.Control) fyne.CanvasObject {
	info := c.Info()
	label := widget.NewLabel(info.Label)
	value := mw.session.Value(info.ID)

	var input fyne.CanvasObject
	switch ctl := c.(type) {
	case pedal.RangeControl:
		readout := widget.NewLabel(strconv.Itoa(value))
		slider := widget.NewSlider(float64(ctl.Min), float64(ctl.Max))
		slider.Step = 1
		slider.SetValue(float64(value))
		slider.OnChanged = func(v float64) { readout.SetText(strconv.Itoa(int(v))) }
		slider.OnChangeEnded = func(v float64) { mw.edit(info.ID, int(v)) }
		input = container.NewBorder(nil, nil, nil, readout, slider)

	case pedal.EnumControl:
		names := make([]string, 0, len(ctl.Options))
		byName := make(map[string]int, len(ctl.Options))
		for _, o := range ctl.Options {
			names = append(names, o.Name)
			byName[o.Name] = o.Value
		}
		sel := widget.NewSelect(names, nil)
		if name, ok := pedal.OptionName(ctl, value); ok {
			sel.SetSelected(name)
		}
		sel.OnChanged = func(name string) { mw.edit(info.ID, byName[name]) }
		input = sel

	case pedal.ZoneEnumControl:
		names := make([]string, 0, len(ctl.Zones))
		byName := make(map[string]int, len(ctl.Zones))
		for _, z := range ctl.Zones {
			names = append(names, z.Name)
			byName[z.Name] = z.Min
		}
		sel := widget.NewSelect(names, nil)
		if name, ok := pedal.ZoneName(ctl, value); ok {
			sel.SetSelected(name)
		}
		sel.OnChanged = func(name string) { mw.edit(info.ID, byName[name]) }
		input = sel

	case pedal.ToggleControl:
		check := widget.NewCheck("", nil)
		check.SetChecked(value == ctl.On)
		check.OnChanged = func(on bool) {
			if on {
				mw.edit(info.ID, ctl.On)
			} else {
				mw.edit(info.ID, ctl.Off)
			}
		}
		input = check

	case pedal.MomentaryControl:
		input = widget.NewButton(info.Label, func() {
			if err := mw.session.Trigger(info.ID); err != nil {
				mw.statusLabel.SetText(err.Error())
			}
		})

	default:
		input = widget.NewLabel(fmt.Sprintf("unsupported control %s", c.Type()))
	}

	return container.NewGridWithColumns(2, label, input)
}

// ============ PROGRAMS ============

func (mw *MainWindow) refreshPrograms() {
	mw.programBox.RemoveAll()

	entry := widget.NewEntry()
	entry.SetPlaceHolder("Program number")
	send := func() {
		n, err := strconv.Atoi(entry.Text)
		if err != nil {
			mw.showError(errors.New("program must be a number"))
			return
		}
		mw.showError(mw.session.SendProgram(n))
	}
	entry.OnSubmitted = func(string) { send() }
	sendBtn := widget.NewButtonWithIcon("Send", theme.MailSendIcon(), send)

	mw.programBox.Add(container.NewBorder(nil, nil, nil, sendBtn, entry))

	if p := mw.session.Profile(); p != nil && p.MIDI.PC != nil {
		pc := p.MIDI.PC
		mw.programBox.Add(widget.NewLabel(fmt.Sprintf("Programs %d-%d", pc.Lo, pc.Hi)))
		for _, bank := range pc.Banks {
			bank := bank
			mw.programBox.Add(widget.NewButton(fmt.Sprintf("%s (%d-%d)", bank.Name, bank.Min, bank.Max), func() {
				entry.SetText(strconv.Itoa(bank.Min))
			}))
		}
	}
	mw.programBox.Refresh()
}
