package main

import (
	"fmt"
	"strconv"
	"strings"

	"disksim/pkg/partition"
	"disksim/pkg/simulator"

	"github.com/gdamore/tcell/v2"
)

const noDriveLetter = "None"

// FormField represents a single form field
type FormField struct {
	label     string
	value     string
	fieldType string   // "text", "select"
	options   []string // for select fields
}

// operationForm represents the form state for one segment operation
type operationForm struct {
	kind          string // "create", "shrink", "extend", "format", "letter"
	title         string
	fields        []FormField
	selectedField int
	diskID        string
	segmentID     string
}

func (f *operationForm) value(label string) string {
	for _, field := range f.fields {
		if field.label == label {
			return strings.TrimSpace(field.value)
		}
	}
	return ""
}

func (s *tuiState) openForm(form operationForm) {
	form.diskID = s.currentDisk
	s.form = form
	s.showForm = true
}

func (s *tuiState) closeForm() {
	s.showForm = false
	s.form = operationForm{}
}

func fileSystemOptions() []string {
	opts := make([]string, 0, len(partition.VolumeFileSystems))
	for _, fs := range partition.VolumeFileSystems {
		opts = append(opts, string(fs))
	}
	return opts
}

// freeDriveLetters lists the letters D through Z not taken on any disk, plus "None".
// keep is offered even if in use, so a segment can keep its own letter.
func (s *tuiState) freeDriveLetters(keep string) []string {
	used := s.app.sim.UsedDriveLetters()
	opts := []string{}
	if keep != "" {
		opts = append(opts, keep)
	}
	for c := 'D'; c <= 'Z'; c++ {
		l := string(c)
		if !used[l] && l != keep {
			opts = append(opts, l)
		}
	}
	return append(opts, noDriveLetter)
}

func (s *tuiState) openCreateForm(seg partition.Segment) {
	letters := s.freeDriveLetters("")
	s.openForm(operationForm{
		kind:      "create",
		title:     "Create Partition",
		segmentID: seg.ID,
		fields: []FormField{
			{label: "Size (MB):", value: strconv.FormatInt(seg.SizeMB, 10), fieldType: "text"},
			{label: "Drive Letter:", value: letters[0], fieldType: "select", options: letters},
			{label: "Label:", value: "New Volume", fieldType: "text"},
			{label: "File System:", value: string(partition.FSNTFS), fieldType: "select", options: fileSystemOptions()},
		},
	})
}

func (s *tuiState) openShrinkForm(seg partition.Segment) {
	s.openForm(operationForm{
		kind:      "shrink",
		title:     "Shrink " + seg.DisplayName(),
		segmentID: seg.ID,
		fields: []FormField{
			{label: "Amount (MB):", value: "", fieldType: "text"},
		},
	})
}

func (s *tuiState) openExtendForm(seg partition.Segment) {
	amount := ""
	if d, ok := s.currentDiskData(); ok {
		if idx := d.IndexOf(seg.ID); idx >= 0 && idx+1 < len(d.Segments) && d.Segments[idx+1].Unallocated() {
			amount = strconv.FormatInt(d.Segments[idx+1].SizeMB, 10)
		}
	}
	s.openForm(operationForm{
		kind:      "extend",
		title:     "Extend " + seg.DisplayName(),
		segmentID: seg.ID,
		fields: []FormField{
			{label: "Amount (MB):", value: amount, fieldType: "text"},
		},
	})
}

func (s *tuiState) openFormatForm(seg partition.Segment) {
	fs := string(seg.FileSystem)
	if fs == string(partition.FSUnformatted) || fs == "" {
		fs = string(partition.FSNTFS)
	}
	s.openForm(operationForm{
		kind:      "format",
		title:     "Format " + seg.DisplayName(),
		segmentID: seg.ID,
		fields: []FormField{
			{label: "Label:", value: seg.Label, fieldType: "text"},
			{label: "File System:", value: fs, fieldType: "select", options: fileSystemOptions()},
		},
	})
}

func (s *tuiState) openLetterForm(seg partition.Segment) {
	letters := s.freeDriveLetters(seg.DriveLetter)
	s.openForm(operationForm{
		kind:      "letter",
		title:     "Change Drive Letter",
		segmentID: seg.ID,
		fields: []FormField{
			{label: "Drive Letter:", value: letters[0], fieldType: "select", options: letters},
		},
	})
}

// handleFormKey handles keyboard input for the open form
func (s *tuiState) handleFormKey(ev *tcell.EventKey) {
	form := &s.form
	if len(form.fields) == 0 {
		s.closeForm()
		return
	}

	switch ev.Key() {
	case tcell.KeyTab:
		if ev.Modifiers()&tcell.ModShift != 0 {
			form.selectedField = (form.selectedField + len(form.fields) - 1) % len(form.fields)
		} else {
			form.selectedField = (form.selectedField + 1) % len(form.fields)
		}
		return
	case tcell.KeyBacktab:
		form.selectedField = (form.selectedField + len(form.fields) - 1) % len(form.fields)
		return
	case tcell.KeyUp:
		if form.selectedField > 0 {
			form.selectedField--
		}
		return
	case tcell.KeyDown:
		if form.selectedField < len(form.fields)-1 {
			form.selectedField++
		}
		return
	case tcell.KeyEnter:
		s.submitForm()
		return
	case tcell.KeyEscape:
		s.closeForm()
		return
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		field := &form.fields[form.selectedField]
		if field.fieldType == "text" && len(field.value) > 0 {
			field.value = field.value[:len(field.value)-1]
		}
		return
	case tcell.KeyLeft, tcell.KeyRight:
		field := &form.fields[form.selectedField]
		if field.fieldType == "select" {
			step := 1
			if ev.Key() == tcell.KeyLeft {
				step = -1
			}
			cycleOption(field, step)
		}
		return
	}

	if ev.Key() == tcell.KeyRune && isPrintable(ev.Rune()) {
		field := &form.fields[form.selectedField]
		switch field.fieldType {
		case "text":
			field.value += string(ev.Rune())
		case "select":
			cycleOption(field, 1)
		}
	}
}

// cycleOption moves a select field step positions through its options.
func cycleOption(field *FormField, step int) {
	if len(field.options) == 0 {
		return
	}
	idx := 0
	for i, opt := range field.options {
		if opt == field.value {
			idx = i
			break
		}
	}
	n := len(field.options)
	field.value = field.options[((idx+step)%n+n)%n]
}

// submitForm parses the form and asks for confirmation before applying it.
// Parse errors stay on the form so the user can correct them.
func (s *tuiState) submitForm() {
	form := s.form
	action, summary, err := s.formAction(form)
	if err != nil {
		s.showErrorDialog("Invalid input", err.Error())
		return
	}
	s.openConfirm(form.title, summary, 0, action)
}

func (s *tuiState) formAction(form operationForm) (func() error, string, error) {
	diskID, segmentID := form.diskID, form.segmentID
	switch form.kind {
	case "create":
		size, err := parseSizeWithUnits(form.value("Size (MB):"))
		if err != nil {
			return nil, "", err
		}
		fs, err := partition.ParseFileSystem(form.value("File System:"))
		if err != nil {
			return nil, "", err
		}
		letter := form.value("Drive Letter:")
		if letter == noDriveLetter {
			letter = ""
		}
		req := simulator.CreateRequest{
			DiskID:      diskID,
			SegmentID:   segmentID,
			SizeMB:      size,
			DriveLetter: letter,
			Label:       form.value("Label:"),
			FileSystem:  fs,
		}
		summary := fmt.Sprintf("Create a %s %s partition?\nLabel: %s\nDrive letter: %s",
			partition.FormatSize(size), fs, orNone(req.Label), orNone(letter))
		return func() error {
			_, err := s.app.sim.CreatePartition(s.ctx, req)
			return err
		}, summary, nil

	case "shrink", "extend":
		amount, err := parseSizeWithUnits(form.value("Amount (MB):"))
		if err != nil {
			return nil, "", err
		}
		if form.kind == "shrink" {
			return func() error {
				return s.app.sim.ShrinkPartition(s.ctx, diskID, segmentID, amount)
			}, fmt.Sprintf("Shrink the partition by %s?", partition.FormatSize(amount)), nil
		}
		return func() error {
			return s.app.sim.ExtendPartition(s.ctx, diskID, segmentID, amount)
		}, fmt.Sprintf("Extend the partition by %s?", partition.FormatSize(amount)), nil

	case "format":
		fs, err := partition.ParseFileSystem(form.value("File System:"))
		if err != nil {
			return nil, "", err
		}
		label := form.value("Label:")
		return func() error {
			return s.app.sim.FormatPartition(s.ctx, diskID, segmentID, label, fs)
		}, fmt.Sprintf("Format as %s with label %q?\nAll data on this volume will be lost.", fs, label), nil

	case "letter":
		letter := form.value("Drive Letter:")
		if letter == noDriveLetter {
			letter = ""
		}
		return func() error {
			return s.app.sim.ChangeDriveLetter(s.ctx, diskID, segmentID, letter)
		}, fmt.Sprintf("Change the drive letter to %s?", orNone(letter)), nil
	}
	return nil, "", fmt.Errorf("unknown form %q", form.kind)
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

// renderForm renders the open operation form
func (s *tuiState) renderForm(screen tcell.Screen, width, height int) {
	form := s.form
	formX, formY, formWidth, formHeight := centerRect(width, height, 60, len(form.fields)+6)

	drawOverlay(screen, width, height)
	drawBox(screen, formX, formY, formWidth, formHeight)
	drawCentered(screen, formY+1, formX, formWidth, form.title, tcell.StyleDefault.Bold(true).Reverse(true))
	drawSeparator(screen, formX, formY+2, formWidth)

	fieldY := formY + 3
	for i, field := range form.fields {
		if fieldY+i >= formY+formHeight-2 {
			break
		}

		labelStyle := tcell.StyleDefault.Reverse(true)
		if i == form.selectedField {
			labelStyle = labelStyle.Bold(true)
		}
		drawText(screen, formX+2, fieldY+i, formX+formWidth-2, field.label, labelStyle)

		valueX := formX + 20
		valueStyle := tcell.StyleDefault.Reverse(true)
		marker := ' '
		if i == form.selectedField {
			valueStyle = valueStyle.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
			marker = '▶'
		}
		screen.SetContent(valueX-1, fieldY+i, marker, nil, valueStyle)

		displayValue := field.value
		if displayValue == "" {
			displayValue = "(empty)"
		}
		if field.fieldType == "select" {
			displayValue = "< " + displayValue + " >"
		}
		maxValueWidth := formX + formWidth - valueX - 2
		if maxValueWidth < 0 {
			maxValueWidth = 0
		}
		if len(displayValue) > maxValueWidth {
			displayValue = displayValue[:maxValueWidth]
		}
		drawText(screen, valueX, fieldY+i, formX+formWidth-2, displayValue+strings.Repeat(" ", maxValueWidth-len(displayValue)), valueStyle)
	}

	instructions := "Tab: Next  Shift+Tab: Previous  Enter: Apply  Esc: Cancel"
	drawCentered(screen, formY+formHeight-2, formX, formWidth, instructions, tcell.StyleDefault.Dim(true).Reverse(true))
}
