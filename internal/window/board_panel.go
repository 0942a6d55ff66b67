package window

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/PixPMusic/pedal-editor/internal/board"
)

// ============ BOARD PANEL ============

func (mw *MainWindow) createBoardPanel() fyne.CanvasObject {
	header := widget.NewLabel("Pedal Board")
	header.TextStyle = fyne.TextStyle{Bold: true}

	addBtn := widget.NewButtonWithIcon("Add Pedal", theme.ContentAddIcon(), func() {
		inst := mw.board.AddInstance("", nil)
		mw.instanceList.Refresh()
		mw.openInstance(inst.ID)
	})

	mw.instanceList = widget.NewList(
		func() int { return len(mw.board.Instances()) },
		func() fyne.CanvasObject { return mw.createInstanceRow() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { mw.updateInstanceRow(id, obj) },
	)
	mw.instanceList.OnSelected = func(id widget.ListItemID) {
		insts := mw.board.Instances()
		if id < len(insts) && insts[id].ID != mw.selectedID {
			mw.openInstance(insts[id].ID)
		}
	}

	return container.NewBorder(
		container.NewVBox(container.NewBorder(nil, nil, header, addBtn), widget.NewSeparator()),
		nil, nil, nil,
		mw.instanceList,
	)
}

func (mw *MainWindow) createInstanceRow() fyne.CanvasObject {
	label := widget.NewLabel("")
	label.Truncation = fyne.TextTruncateEllipsis

	upBtn := widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
	downBtn := widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)
	dupBtn := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), nil)
	removeBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)

	return container.NewBorder(nil, nil, nil,
		container.NewHBox(upBtn, downBtn, dupBtn, removeBtn),
		label,
	)
}

func (mw *MainWindow) updateInstanceRow(id widget.ListItemID, obj fyne.CanvasObject) {
	insts := mw.board.Instances()
	if id >= len(insts) {
		return
	}
	inst := insts[id]

	row := obj.(*fyne.Container)
	label := row.Objects[0].(*widget.Label)
	buttons := row.Objects[1].(*fyne.Container)
	upBtn := buttons.Objects[0].(*widget.Button)
	downBtn := buttons.Objects[1].(*widget.Button)
	dupBtn := buttons.Objects[2].(*widget.Button)
	removeBtn := buttons.Objects[3].(*widget.Button)

	label.SetText(instanceTitle(inst))

	instanceID := inst.ID
	upBtn.OnTapped = func() { mw.moveInstance(instanceID, board.Up) }
	downBtn.OnTapped = func() { mw.moveInstance(instanceID, board.Down) }
	dupBtn.OnTapped = func() {
		if dup, ok := mw.board.DuplicateInstance(instanceID); ok {
			mw.instanceList.Refresh()
			mw.openInstance(dup.ID)
		}
	}
	removeBtn.OnTapped = func() { mw.removeInstance(instanceID) }
}

func instanceTitle(inst board.Instance) string {
	device := inst.Device
	if device == "" {
		device = "No pedal"
	}
	return fmt.Sprintf("%s · Ch %d", device, inst.Channel)
}

func (mw *MainWindow) moveInstance(id string, dir board.Direction) {
	mw.board.MoveInstance(id, dir)
	mw.instanceList.Refresh()
	mw.selectListRow()
}

func (mw *MainWindow) removeInstance(id string) {
	mw.board.RemoveInstance(id)
	mw.instanceList.Refresh()
	if id == mw.selectedID {
		mw.selectedID = ""
		if insts := mw.board.Instances(); len(insts) > 0 {
			mw.openInstance(insts[0].ID)
		}
	}
}

// selectListRow highlights the open instance without reopening it
func (mw *MainWindow) selectListRow() {
	for i, inst := range mw.board.Instances() {
		if inst.ID == mw.selectedID {
			mw.instanceList.Select(i)
			return
		}
	}
}
