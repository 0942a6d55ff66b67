package window

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ============ SNAPSHOTS TAB ============

func (mw *MainWindow) createSnapshotsTab() fyne.CanvasObject {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Snapshot name (optional)")

	captureBtn := widget.NewButtonWithIcon("Capture", theme.DocumentSaveIcon(), func() {
		if _, ok := mw.session.CaptureSnapshot(nameEntry.Text); !ok {
			mw.statusLabel.SetText("Choose a pedal before capturing a snapshot")
			return
		}
		nameEntry.SetText("")
		mw.snapshotList.Refresh()
	})

	mw.snapshotList = widget.NewList(
		func() int { return len(mw.session.Snapshots()) },
		func() fyne.CanvasObject { return mw.createSnapshotRow() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { mw.updateSnapshotRow(id, obj) },
	)

	return container.NewBorder(
		container.NewBorder(nil, nil, nil, captureBtn, nameEntry),
		nil, nil, nil,
		mw.snapshotList,
	)
}

func (mw *MainWindow) createSnapshotRow() fyne.CanvasObject {
	label := widget.NewLabel("")
	label.Truncation = fyne.TextTruncateEllipsis

	stageBtn := widget.NewButtonWithIcon("Load", theme.DownloadIcon(), nil)
	removeBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)

	return container.NewBorder(nil, nil, nil, container.NewHBox(stageBtn, removeBtn), label)
}

func (mw *MainWindow) updateSnapshotRow(id widget.ListItemID, obj fyne.CanvasObject) {
	snaps := mw.session.Snapshots()
	if id >= len(snaps) {
		return
	}
	snap := snaps[id]

	row := obj.(*fyne.Container)
	label := row.Objects[0].(*widget.Label)
	buttons := row.Objects[1].(*fyne.Container)
	stageBtn := buttons.Objects[0].(*widget.Button)
	removeBtn := buttons.Objects[1].(*widget.Button)

	label.SetText(snap.Name)

	snapshotID := snap.ID
	stageBtn.OnTapped = func() {
		// Staged values are a draft until Apply
		if mw.session.StageSnapshot(snapshotID) {
			mw.refreshControls()
		}
	}
	removeBtn.OnTapped = func() {
		mw.session.RemoveSnapshot(snapshotID)
		mw.snapshotList.Refresh()
	}
}
