package main

import (
	"fmt"
	"strings"

	"disksim/pkg/partition"

	"github.com/gdamore/tcell/v2"
)

const maxDialogWidth = 70

func (s *tuiState) openPopup(title string, options []string, actions []func()) {
	s.showPopup = true
	s.popupTitle = title
	s.popupOptions = options
	s.popupActions = actions
	s.selectedOptionIdx = 0
}

func (s *tuiState) closePopup() {
	s.showPopup = false
	s.popupOptions = nil
	s.popupActions = nil
}

// openSegmentPopup lists the operations that apply to the selected segment.
func (s *tuiState) openSegmentPopup() {
	seg, ok := s.selectedSegment()
	if !ok {
		return
	}
	if seg.Unallocated() {
		s.openPopup("Unallocated Space",
			[]string{"Create Partition"},
			[]func(){func() { s.openCreateForm(seg) }})
		return
	}
	s.openPopup(seg.DisplayName(),
		[]string{"Delete Partition", "Shrink Partition", "Extend Partition", "Format Partition", "Change Drive Letter"},
		[]func(){
			func() { s.openDeleteConfirm(seg) },
			func() { s.openShrinkForm(seg) },
			func() { s.openExtendForm(seg) },
			func() { s.openFormatForm(seg) },
			func() { s.openLetterForm(seg) },
		})
}

func (s *tuiState) openMissionsPopup() {
	statuses, current, err := s.app.sim.Missions(s.ctx)
	if err != nil {
		s.showErrorDialog("Error", err.Error())
		return
	}
	options := make([]string, 0, len(statuses))
	actions := make([]func(), 0, len(statuses))
	for _, st := range statuses {
		mark := "[ ]"
		if st.Completed {
			mark = "[x]"
		}
		options = append(options, fmt.Sprintf("%s %d. %s", mark, st.ID, st.Title))
		id, title := st.ID, st.Title
		actions = append(actions, func() { s.openMissionPopup(id, title) })
	}
	options = append(options, "Reset All Missions")
	actions = append(actions, func() {
		s.openConfirm("Reset Missions", "Clear the progress of every mission?", 1, func() error {
			return s.app.sim.ResetMissions(s.ctx)
		})
	})
	s.openPopup("Missions", options, actions)
	if current > 0 {
		s.selectedOptionIdx = current - 1
	}
}

// openMissionPopup offers the actions for a single mission.
func (s *tuiState) openMissionPopup(id int, title string) {
	s.openPopup(fmt.Sprintf("%d. %s", id, title),
		[]string{"Check Mission", "Reset Mission"},
		[]func(){
			func() { s.checkMission(id) },
			func() {
				s.openConfirm("Reset Mission", fmt.Sprintf("Clear the progress of mission %d?", id), 1, func() error {
					return s.app.sim.ResetMission(s.ctx, id)
				})
			},
		})
}

func (s *tuiState) checkMission(id int) {
	entry, err := s.app.sim.CheckMission(s.ctx, id)
	if err != nil {
		s.showErrorDialog("Mission", describeError(err))
		return
	}
	if entry.Success {
		s.showErrorDialog("Mission Complete", fmt.Sprintf("Mission %d complete after %d attempt(s).", id, entry.Attempts))
		return
	}
	s.showErrorDialog("Mission", fmt.Sprintf("Mission %d is not complete yet. Attempt %d.", id, entry.Attempts))
}

func (s *tuiState) handlePopupKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyLeft:
		s.closePopup()
	case tcell.KeyUp:
		if s.selectedOptionIdx > 0 {
			s.selectedOptionIdx--
		}
	case tcell.KeyDown:
		if s.selectedOptionIdx < len(s.popupOptions)-1 {
			s.selectedOptionIdx++
		}
	case tcell.KeyEnter:
		if s.selectedOptionIdx >= 0 && s.selectedOptionIdx < len(s.popupActions) {
			action := s.popupActions[s.selectedOptionIdx]
			s.closePopup()
			action()
		}
	}
}

// renderPopup renders the options popup
func (s *tuiState) renderPopup(screen tcell.Screen, width, height int) {
	popupX, popupY, popupWidth, popupHeight := centerRect(width, height, 50, len(s.popupOptions)+5)

	drawOverlay(screen, width, height)
	drawBox(screen, popupX, popupY, popupWidth, popupHeight)
	drawCentered(screen, popupY+1, popupX, popupWidth, s.popupTitle, tcell.StyleDefault.Bold(true).Reverse(true))
	drawSeparator(screen, popupX, popupY+2, popupWidth)

	optionY := popupY + 3
	for i, option := range s.popupOptions {
		if optionY+i >= popupY+popupHeight-2 {
			break // Don't draw beyond the instructions line
		}
		style := tcell.StyleDefault.Reverse(true)
		marker := " "
		if i == s.selectedOptionIdx {
			style = tcell.StyleDefault.
				Foreground(tcell.ColorBlack).
				Background(tcell.ColorWhite).
				Reverse(true)
			marker = "▶"
		}
		drawText(screen, popupX+2, optionY+i, popupX+popupWidth-2, marker+option, style)
	}

	drawCentered(screen, popupY+popupHeight-2, popupX, popupWidth, "↑↓: Select  Enter: Choose  Esc: Cancel", tcell.StyleDefault.Dim(true).Reverse(true))
}

func (s *tuiState) openDeleteConfirm(seg partition.Segment) {
	diskID := s.currentDisk
	msg := fmt.Sprintf("Delete %s (%s)?\nAll data on this volume will be lost.", seg.DisplayName(), partition.FormatSize(seg.SizeMB))
	s.openConfirm("Delete Partition", msg, 1, func() error {
		return s.app.sim.DeletePartition(s.ctx, diskID, seg.ID)
	})
}

// openConfirm shows a Yes/No dialog. defaultIdx 0 preselects Yes, 1 No.
func (s *tuiState) openConfirm(title, msg string, defaultIdx int, action func() error) {
	s.showConfirm = true
	s.confirmTitle = title
	s.confirmMessage = msg
	s.confirmAction = action
	s.selectedOptionIdx = defaultIdx
}

func (s *tuiState) closeConfirm() {
	s.showConfirm = false
	s.confirmMessage = ""
	s.confirmAction = nil
}

func (s *tuiState) handleConfirmKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyLeft, tcell.KeyRight, tcell.KeyTab:
		s.selectedOptionIdx = 1 - s.selectedOptionIdx
	case tcell.KeyEscape:
		s.closeConfirm()
	case tcell.KeyEnter:
		action := s.confirmAction
		confirmed := s.selectedOptionIdx == 0
		s.closeConfirm()
		if confirmed && action != nil {
			s.showForm = false
			s.perform(action)
		}
	}
	switch ev.Rune() {
	case 'y', 'Y':
		s.selectedOptionIdx = 0
	case 'n', 'N':
		s.selectedOptionIdx = 1
	}
}

// renderConfirmDialog renders the confirmation dialog
func (s *tuiState) renderConfirmDialog(screen tcell.Screen, width, height int) {
	lines := wrapText(s.confirmMessage, maxDialogWidth-4)

	dialogWidth := 60
	for _, line := range lines {
		if len(line)+4 > dialogWidth {
			dialogWidth = len(line) + 4
		}
	}
	dialogX, dialogY, dialogWidth, dialogHeight := centerRect(width, height, dialogWidth, len(lines)+8)

	drawOverlay(screen, width, height)
	drawBox(screen, dialogX, dialogY, dialogWidth, dialogHeight)
	drawCentered(screen, dialogY+1, dialogX, dialogWidth, s.confirmTitle, tcell.StyleDefault.Bold(true).Reverse(true))

	msgY := dialogY + 3
	for i, line := range lines {
		if msgY+i >= dialogY+dialogHeight-3 {
			break
		}
		drawCentered(screen, msgY+i, dialogX, dialogWidth, line, tcell.StyleDefault.Reverse(true))
	}

	// Draw Yes/No options
	yesNoY := dialogY + dialogHeight - 3
	yesX := dialogX + dialogWidth/2 - 10
	noX := dialogX + dialogWidth/2 + 5
	for idx, label := range []string{"Yes", "No"} {
		x := yesX
		if idx == 1 {
			x = noX
		}
		style := tcell.StyleDefault.Reverse(true)
		mark := " "
		if s.selectedOptionIdx == idx {
			style = tcell.StyleDefault.
				Foreground(tcell.ColorBlack).
				Background(tcell.ColorWhite).
				Reverse(true)
			mark = "X"
		}
		drawText(screen, x, yesNoY, dialogX+dialogWidth-1, "["+mark+"] "+label, style)
	}

	drawCentered(screen, dialogY+dialogHeight-2, dialogX, dialogWidth, "←→: Toggle  Enter: Confirm  Esc: Cancel", tcell.StyleDefault.Dim(true).Reverse(true))
}

// renderErrorDialog renders an error message dialog
func (s *tuiState) renderErrorDialog(screen tcell.Screen, width, height int) {
	lines := wrapText(s.errorMessage, maxDialogWidth-4)
	dialogWidth := 20
	for _, line := range lines {
		if len(line)+4 > dialogWidth {
			dialogWidth = len(line) + 4
		}
	}
	dialogX, dialogY, dialogWidth, dialogHeight := centerRect(width, height, dialogWidth, len(lines)+5)

	drawOverlay(screen, width, height)
	drawBox(screen, dialogX, dialogY, dialogWidth, dialogHeight)

	titleStyle := tcell.StyleDefault.Bold(true).Reverse(true)
	if s.errorTitle == "Error" {
		titleStyle = titleStyle.Foreground(tcell.ColorRed)
	}
	drawCentered(screen, dialogY+1, dialogX, dialogWidth, s.errorTitle, titleStyle)

	msgY := dialogY + 3
	for i, line := range lines {
		if msgY+i >= dialogY+dialogHeight-2 {
			break
		}
		drawCentered(screen, msgY+i, dialogX, dialogWidth, line, tcell.StyleDefault.Reverse(true))
	}

	drawCentered(screen, dialogY+dialogHeight-2, dialogX, dialogWidth, "Press any key to close", tcell.StyleDefault.Dim(true).Reverse(true))
}

// popupSummary is used by the shell to describe the same operations the popup offers.
func popupSummary(seg partition.Segment) string {
	if seg.Unallocated() {
		return "create"
	}
	return strings.Join([]string{"delete", "shrink", "extend", "format", "letter"}, ", ")
}
