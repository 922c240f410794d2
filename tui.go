package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"disksim/pkg/config"
	"disksim/pkg/log"
	"disksim/pkg/partition"

	tcell "github.com/gdamore/tcell/v2"
)

// tuiState holds the TUI state
type tuiState struct {
	ctx                context.Context
	app                *app
	disks              []partition.Disk
	selectedIndex      int
	showingSegments    bool
	currentDisk        string
	selectedSegmentIdx int

	showPopup         bool
	popupTitle        string
	popupOptions      []string
	popupActions      []func()
	selectedOptionIdx int

	showForm bool
	form     operationForm

	showConfirm    bool
	confirmTitle   string
	confirmMessage string
	confirmAction  func() error

	showError    bool
	errorTitle   string
	errorMessage string
}

func newTUIState(ctx context.Context, a *app) *tuiState {
	s := &tuiState{ctx: ctx, app: a}
	s.refresh()
	return s
}

// runTUI is the main entry point for the TUI command
func runTUI(ctx context.Context, a *app) error {
	// Log lines would tear the screen, so they go to a file while it is up.
	if logFile == nil {
		path := filepath.Join(config.Dir(), "disksim.log")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				log.SetOutput(f)
				defer func() {
					log.SetOutput(os.Stderr)
					_ = f.Close()
				}()
			}
		}
	}

	state := newTUIState(ctx, a)
	return state.runInteractiveTUI()
}

func (s *tuiState) runInteractiveTUI() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.
		Foreground(tcell.ColorWhite).
		Background(tcell.ColorBlack))
	screen.Clear()
	screen.Show()

	for {
		s.render(screen)
		screen.Show()

		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			if s.handleKeyEvent(ev) {
				return nil
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

// refresh reloads the disks from the simulator and clamps the selection.
func (s *tuiState) refresh() {
	s.disks = s.app.sim.Disks()
	if s.selectedIndex >= len(s.disks) {
		s.selectedIndex = len(s.disks) - 1
	}
	if s.selectedIndex < 0 {
		s.selectedIndex = 0
	}
	if s.showingSegments {
		d, ok := s.currentDiskData()
		if !ok {
			s.showingSegments = false
			s.currentDisk = ""
			s.selectedSegmentIdx = 0
			return
		}
		if s.selectedSegmentIdx >= len(d.Segments) {
			s.selectedSegmentIdx = len(d.Segments) - 1
		}
		if s.selectedSegmentIdx < 0 {
			s.selectedSegmentIdx = 0
		}
	}
}

func (s *tuiState) currentDiskData() (partition.Disk, bool) {
	for _, d := range s.disks {
		if d.ID == s.currentDisk {
			return d, true
		}
	}
	return partition.Disk{}, false
}

func (s *tuiState) selectedSegment() (partition.Segment, bool) {
	d, ok := s.currentDiskData()
	if !ok || s.selectedSegmentIdx < 0 || s.selectedSegmentIdx >= len(d.Segments) {
		return partition.Segment{}, false
	}
	return d.Segments[s.selectedSegmentIdx], true
}

func (s *tuiState) render(screen tcell.Screen) {
	width, height := screen.Size()
	if s.showingSegments {
		s.renderSegmentsTUI(screen)
	} else {
		s.renderDiskListTUI(screen)
	}
	switch {
	case s.showError:
		s.renderErrorDialog(screen, width, height)
	case s.showConfirm:
		s.renderConfirmDialog(screen, width, height)
	case s.showForm:
		s.renderForm(screen, width, height)
	case s.showPopup:
		s.renderPopup(screen, width, height)
	}
}

func (s *tuiState) renderDiskListTUI(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()

	drawCentered(screen, 0, 0, width, "=== Disk Management ===", tcell.StyleDefault.Bold(true))

	y := 2
	for i, disk := range s.disks {
		if y >= height-3 {
			break
		}

		var style tcell.Style
		var prefix string
		if i == s.selectedIndex {
			style = tcell.StyleDefault.
				Foreground(tcell.ColorBlack).
				Background(tcell.ColorWhite)
			prefix = "> "
		} else {
			style = tcell.StyleDefault
			prefix = "  "
		}

		status := "Online"
		if !disk.Online {
			status = "Offline"
		}
		line := fmt.Sprintf("%s%-22s %-4s %12s  %s", prefix, disk.Name, disk.Media, partition.FormatSize(disk.TotalSizeMB), status)
		drawText(screen, 0, y, width, line, style)
		y++
	}

	// Status line at bottom - show selected disk info
	if s.selectedIndex >= 0 && s.selectedIndex < len(s.disks) {
		d := s.disks[s.selectedIndex]
		drawStatusLine(screen, height-2, width,
			fmt.Sprintf("[%s] %d segments", d.Media, len(d.Segments)),
			fmt.Sprintf("Size: %s | Free: %s", partition.FormatSize(d.TotalSizeMB), partition.FormatSize(d.FreeMB())))
	}

	instructions := "↑↓: Navigate | →/Enter: Open | U: Attach USB | M: Missions | R: Reset | Q: Quit"
	drawCentered(screen, height-1, 0, width, instructions, tcell.StyleDefault.Dim(true))
}

func (s *tuiState) renderSegmentsTUI(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()

	d, ok := s.currentDiskData()
	if !ok {
		return
	}
	drawCentered(screen, 0, 0, width, fmt.Sprintf("=== %s ===", d.Name), tcell.StyleDefault.Bold(true))

	s.renderLayoutBar(screen, d, 2, width)

	header := fmt.Sprintf(" %-3s %-26s %-12s %-12s %s", "#", "Volume", "File System", "Size", "Status")
	drawText(screen, 0, 4, width, header, tcell.StyleDefault.Bold(true))
	for x := 0; x < width; x++ {
		screen.SetContent(x, 5, '-', nil, tcell.StyleDefault)
	}

	y := 6
	for i, seg := range d.Segments {
		if y >= height-3 {
			break
		}
		var rowStyle tcell.Style
		switch {
		case i == s.selectedSegmentIdx:
			rowStyle = tcell.StyleDefault.
				Foreground(tcell.ColorBlack).
				Background(tcell.ColorWhite)
		case seg.Unallocated():
			rowStyle = tcell.StyleDefault.Dim(true)
		default:
			rowStyle = tcell.StyleDefault
		}
		line := fmt.Sprintf(" %-3d %-26s %-12s %-12s %s", i+1, seg.DisplayName(), fileSystemLabel(seg), partition.FormatSize(seg.SizeMB), segmentStatus(seg))
		drawText(screen, 0, y, width, line, rowStyle)
		y++
	}

	if seg, ok := s.selectedSegment(); ok {
		left := "Unallocated space"
		if !seg.Unallocated() {
			left = seg.DisplayName()
			if seg.Protected() {
				left += " [protected]"
			}
		}
		drawStatusLine(screen, height-2, width, left,
			fmt.Sprintf("Size: %s | Disk free: %s", partition.FormatSize(seg.SizeMB), partition.FormatSize(d.FreeMB())))
	}

	instructions := "↑↓: Navigate | Enter: Actions | ←/B: Back | Q: Quit"
	drawCentered(screen, height-1, 0, width, instructions, tcell.StyleDefault.Dim(true))
}

// renderLayoutBar draws the disk as a bar with one block per segment,
// each at least one column wide.
func (s *tuiState) renderLayoutBar(screen tcell.Screen, d partition.Disk, y, width int) {
	barWidth := width - 2
	if barWidth < len(d.Segments) || d.TotalSizeMB <= 0 {
		return
	}
	x := 1
	for i, seg := range d.Segments {
		cols := int(seg.SizeMB * int64(barWidth) / d.TotalSizeMB)
		if cols < 1 {
			cols = 1
		}
		if i == len(d.Segments)-1 || x+cols > 1+barWidth {
			cols = 1 + barWidth - x
		}
		ch := '█'
		style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
		switch {
		case seg.Unallocated():
			ch = '░'
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		case seg.Protected():
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		}
		if i == s.selectedSegmentIdx {
			style = style.Reverse(true)
		}
		for c := 0; c < cols; c++ {
			screen.SetContent(x+c, y, ch, nil, style)
		}
		x += cols
	}
}

// handleKeyEvent processes one key and reports whether the TUI should exit.
func (s *tuiState) handleKeyEvent(ev *tcell.EventKey) bool {
	switch {
	case s.showError:
		s.showError = false
		s.errorMessage = ""
		return false
	case s.showConfirm:
		s.handleConfirmKey(ev)
		return false
	case s.showForm:
		s.handleFormKey(ev)
		return false
	case s.showPopup:
		s.handlePopupKey(ev)
		return false
	}

	if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' || ev.Rune() == 'Q' {
		if s.showingSegments && ev.Key() == tcell.KeyEscape {
			s.leaveSegments()
			return false
		}
		return true
	}

	if s.showingSegments {
		s.handleSegmentKey(ev)
		return false
	}

	// In disk list view
	switch ev.Key() {
	case tcell.KeyUp:
		if s.selectedIndex > 0 {
			s.selectedIndex--
		}
	case tcell.KeyDown:
		if s.selectedIndex < len(s.disks)-1 {
			s.selectedIndex++
		}
	case tcell.KeyRight, tcell.KeyEnter:
		if s.selectedIndex >= 0 && s.selectedIndex < len(s.disks) {
			s.currentDisk = s.disks[s.selectedIndex].ID
			s.selectedSegmentIdx = 0
			s.showingSegments = true
		}
	}

	switch ev.Rune() {
	case 'u', 'U':
		s.perform(func() error {
			_, err := s.app.sim.AddRemovableDisk(s.ctx)
			return err
		})
	case 'r', 'R':
		s.openConfirm("Reset", "Restore the initial disk layout?\nAll partitions you created will be lost.", 1, func() error {
			return s.app.sim.Reset(s.ctx)
		})
	case 'm', 'M':
		s.openMissionsPopup()
	}
	return false
}

func (s *tuiState) handleSegmentKey(ev *tcell.EventKey) {
	d, _ := s.currentDiskData()
	switch ev.Key() {
	case tcell.KeyLeft:
		s.leaveSegments()
		return
	case tcell.KeyUp:
		if s.selectedSegmentIdx > 0 {
			s.selectedSegmentIdx--
		}
	case tcell.KeyDown:
		if s.selectedSegmentIdx < len(d.Segments)-1 {
			s.selectedSegmentIdx++
		}
	case tcell.KeyRight, tcell.KeyEnter:
		s.openSegmentPopup()
		return
	}
	if ev.Rune() == 'b' || ev.Rune() == 'B' {
		s.leaveSegments()
		return
	}
	if seg, ok := s.selectedSegment(); ok {
		_ = s.app.sim.Select(s.currentDisk, seg.ID)
	}
}

func (s *tuiState) leaveSegments() {
	s.showingSegments = false
	s.currentDisk = ""
	s.selectedSegmentIdx = 0
}

// perform runs an operation and shows its error, if any, in the error dialog.
func (s *tuiState) perform(action func() error) {
	if err := action(); err != nil {
		s.showErrorDialog("Error", describeError(err))
	}
	s.refresh()
}

func (s *tuiState) showErrorDialog(title, msg string) {
	s.showError = true
	s.errorTitle = title
	s.errorMessage = msg
}
