package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"disksim/pkg/config"
	"disksim/pkg/partition"
	"disksim/pkg/simulator"

	"github.com/chzyer/readline"
	tui "github.com/network-plane/planetui"
)

const sessionDiskKey = "selected_disk"

// shellCommandFactory builds one planetui command around a run function.
type shellCommandFactory struct {
	spec tui.CommandSpec
	run  func(rt tui.CommandRuntime, input tui.CommandInput) error
}

// shellCommand implements a planetui command
type shellCommand struct {
	spec tui.CommandSpec
	run  func(rt tui.CommandRuntime, input tui.CommandInput) error
}

func (f *shellCommandFactory) Spec() tui.CommandSpec { return f.spec }

func (f *shellCommandFactory) New(rt tui.CommandRuntime) (tui.Command, error) {
	return &shellCommand{spec: f.spec, run: f.run}, nil
}

func (c *shellCommand) Spec() tui.CommandSpec { return c.spec }

func (c *shellCommand) Execute(rt tui.CommandRuntime, input tui.CommandInput) tui.CommandResult {
	if err := c.run(rt, input); err != nil {
		rt.Output().Error(describeError(err))
		return tui.CommandResult{
			Status: tui.StatusSuccess,
			Error:  &tui.CommandError{Message: err.Error()},
		}
	}
	return tui.CommandResult{Status: tui.StatusSuccess}
}

// shell holds what the registered commands act on.
type shell struct {
	ctx context.Context
	app *app
}

func stringArg(name, description string, required bool) tui.ArgSpec {
	return tui.ArgSpec{Name: name, Type: tui.ArgTypeString, Required: required, Description: description}
}

func (sh *shell) command(spec tui.CommandSpec, run func(rt tui.CommandRuntime, input tui.CommandInput) error) tui.CommandFactory {
	return &shellCommandFactory{spec: spec, run: run}
}

// resolveDisk turns a disk id or a 1-based position into a disk id.
func resolveDisk(sim *simulator.Service, ref string) (string, error) {
	disks := sim.Disks()
	for _, d := range disks {
		if d.ID == ref {
			return d.ID, nil
		}
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(disks) {
		return "", fmt.Errorf("%w: %q", partition.ErrDiskNotFound, ref)
	}
	return disks[n-1].ID, nil
}

func (sh *shell) selectedDisk(rt tui.CommandRuntime) (string, error) {
	val, ok := rt.Session().Get(sessionDiskKey)
	if !ok || val == nil {
		return "", fmt.Errorf("no disk selected, use 'select <disk>' first")
	}
	diskID, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("invalid disk selection")
	}
	return diskID, nil
}

// segmentArg resolves the "segment" argument against the selected disk.
func (sh *shell) segmentArg(rt tui.CommandRuntime, input tui.CommandInput) (string, string, error) {
	diskID, err := sh.selectedDisk(rt)
	if err != nil {
		return "", "", err
	}
	segmentID, err := resolveSegment(sh.app.sim, diskID, input.Args.String("segment"))
	if err != nil {
		return "", "", err
	}
	return diskID, segmentID, nil
}

func (sh *shell) printDisk(rt tui.CommandRuntime, diskID string) error {
	d, err := sh.app.sim.Disk(diskID)
	if err != nil {
		return err
	}
	rt.Output().Info(fmt.Sprintf("%s: %s, %s free", d.Name, partition.FormatSize(d.TotalSizeMB), partition.FormatSize(d.FreeMB())))
	for i, seg := range d.Segments {
		rt.Output().Info(fmt.Sprintf("%d. %-24s %-12s %-12s %s", i+1, seg.DisplayName(), fileSystemLabel(seg), partition.FormatSize(seg.SizeMB), segmentStatus(seg)))
	}
	return nil
}

func (sh *shell) diskCommands() []tui.CommandFactory {
	return []tui.CommandFactory{
		sh.command(tui.CommandSpec{
			Name:        "interactive",
			Summary:     "Launch the full-screen simulator",
			Description: "Launches the full-screen terminal UI over the same simulator state.",
			Context:     "disk",
			Aliases:     []string{"i", "tui"},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			return runTUI(sh.ctx, sh.app)
		}),
		sh.command(tui.CommandSpec{
			Name:        "list",
			Summary:     "List simulated disks",
			Description: "Lists every simulated disk with its size and free space.",
			Context:     "disk",
			Aliases:     []string{"ls", "disks"},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			for i, d := range sh.app.sim.Disks() {
				rt.Output().Info(fmt.Sprintf("%d. %s [%s] %s %s, %s free", i+1, d.Name, d.ID, d.Media, partition.FormatSize(d.TotalSizeMB), partition.FormatSize(d.FreeMB())))
			}
			return nil
		}),
		sh.command(tui.CommandSpec{
			Name:        "select",
			Summary:     "Select a disk to work on its segments",
			Description: "Selects a disk by id or position and switches to the segment commands.",
			Context:     "disk",
			Aliases:     []string{"sel", "disk"},
			Args:        []tui.ArgSpec{stringArg("disk", "Disk id or position", true)},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			diskID, err := resolveDisk(sh.app.sim, input.Args.String("disk"))
			if err != nil {
				return err
			}
			rt.Session().Set(sessionDiskKey, diskID)
			rt.NavigateTo("segment", nil)
			rt.Output().Info(fmt.Sprintf("Selected disk: %s", diskID))
			return sh.printDisk(rt, diskID)
		}),
		sh.command(tui.CommandSpec{
			Name:        "usb",
			Summary:     "Attach the removable disk",
			Description: "Attaches the 16 GB removable disk as Disk 1.",
			Context:     "disk",
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			d, err := sh.app.sim.AddRemovableDisk(sh.ctx)
			if err != nil {
				return err
			}
			rt.Output().Info(fmt.Sprintf("Attached %s (%s)", d.Name, partition.FormatSize(d.TotalSizeMB)))
			return nil
		}),
		sh.command(tui.CommandSpec{
			Name:        "reset",
			Summary:     "Restore the initial disk layout",
			Description: "Discards every change and restores the initial disk layout.",
			Context:     "disk",
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			if err := sh.app.sim.Reset(sh.ctx); err != nil {
				return err
			}
			rt.Session().Set(sessionDiskKey, nil)
			rt.Output().Info("Layout reset")
			return nil
		}),
		sh.command(tui.CommandSpec{
			Name:        "missions",
			Summary:     "List missions",
			Description: "Lists the missions with their completion state.",
			Context:     "disk",
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			statuses, current, err := sh.app.sim.Missions(sh.ctx)
			if err != nil {
				return err
			}
			for _, st := range statuses {
				mark := " "
				if st.Completed {
					mark = "x"
				}
				line := fmt.Sprintf("[%s] %d. %s", mark, st.ID, st.Title)
				if st.ID == current {
					line += "  (current)"
				}
				rt.Output().Info(line)
			}
			return nil
		}),
		sh.command(tui.CommandSpec{
			Name:        "check",
			Summary:     "Check a mission",
			Description: "Validates a mission against the current layout and records the attempt.",
			Context:     "disk",
			Args:        []tui.ArgSpec{stringArg("mission", "Mission id", true)},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			id, err := strconv.Atoi(input.Args.String("mission"))
			if err != nil {
				return fmt.Errorf("invalid mission id %q", input.Args.String("mission"))
			}
			entry, err := sh.app.sim.CheckMission(sh.ctx, id)
			if err != nil {
				return err
			}
			if entry.Success {
				rt.Output().Info(fmt.Sprintf("Mission %d complete (attempt %d)", id, entry.Attempts))
			} else {
				rt.Output().Warn(fmt.Sprintf("Mission %d not complete yet (attempt %d)", id, entry.Attempts))
			}
			return nil
		}),
		sh.command(tui.CommandSpec{
			Name:        "reset-mission",
			Summary:     "Clear mission progress",
			Description: "Clears the recorded attempts of one mission, or of every mission when no id is given.",
			Context:     "disk",
			Args:        []tui.ArgSpec{stringArg("mission", "Mission id", false)},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			raw := input.Args.String("mission")
			if raw == "" {
				if err := sh.app.sim.ResetMissions(sh.ctx); err != nil {
					return err
				}
				rt.Output().Info("Mission progress cleared")
				return nil
			}
			id, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("invalid mission id %q", raw)
			}
			if err := sh.app.sim.ResetMission(sh.ctx, id); err != nil {
				return err
			}
			rt.Output().Info(fmt.Sprintf("Mission %d progress cleared", id))
			return nil
		}),
	}
}

func (sh *shell) segmentCommands() []tui.CommandFactory {
	return []tui.CommandFactory{
		sh.command(tui.CommandSpec{
			Name:        "list",
			Summary:     "List segments on the selected disk",
			Description: "Lists the segments of the selected disk in order.",
			Context:     "segment",
			Aliases:     []string{"ls", "segments"},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			diskID, err := sh.selectedDisk(rt)
			if err != nil {
				return err
			}
			return sh.printDisk(rt, diskID)
		}),
		sh.command(tui.CommandSpec{
			Name:        "select",
			Summary:     "Select a segment",
			Description: "Selects a segment and lists the operations it accepts.",
			Context:     "segment",
			Aliases:     []string{"sel"},
			Args:        []tui.ArgSpec{stringArg("segment", "Segment id or position", true)},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			diskID, segmentID, err := sh.segmentArg(rt, input)
			if err != nil {
				return err
			}
			if err := sh.app.sim.Select(diskID, segmentID); err != nil {
				return err
			}
			seg, err := sh.app.sim.Segment(diskID, segmentID)
			if err != nil {
				return err
			}
			rt.Output().Info(fmt.Sprintf("Selected %s (%s), available: %s", seg.DisplayName(), partition.FormatSize(seg.SizeMB), popupSummary(seg)))
			return nil
		}),
		sh.command(tui.CommandSpec{
			Name:        "disks",
			Summary:     "Return to the disk commands",
			Description: "Leaves the segment commands and returns to the disk list.",
			Context:     "segment",
			Aliases:     []string{"back"},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			rt.NavigateTo("disk", nil)
			return nil
		}),
		sh.command(tui.CommandSpec{
			Name:        "create",
			Summary:     "Create a partition in unallocated space",
			Description: "Creates a partition of SIZE (e.g. 500M, 100G) in an unallocated segment.",
			Context:     "segment",
			Aliases:     []string{"new"},
			Args: []tui.ArgSpec{
				stringArg("segment", "Unallocated segment id or position", true),
				stringArg("size", "Partition size, MB unless suffixed", true),
				stringArg("letter", "Drive letter, - for none", false),
				stringArg("fs", "File system (NTFS, FAT32, exFAT)", false),
				stringArg("label", "Volume label", false),
			},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			diskID, segmentID, err := sh.segmentArg(rt, input)
			if err != nil {
				return err
			}
			size, err := parseSizeWithUnits(input.Args.String("size"))
			if err != nil {
				return err
			}
			fs, err := parseOptionalFileSystem(input.Args.String("fs"))
			if err != nil {
				return err
			}
			letter := input.Args.String("letter")
			if letter == "-" {
				letter = ""
			}
			created, err := sh.app.sim.CreatePartition(sh.ctx, simulator.CreateRequest{
				DiskID:      diskID,
				SegmentID:   segmentID,
				SizeMB:      size,
				DriveLetter: letter,
				Label:       input.Args.String("label"),
				FileSystem:  fs,
			})
			if err != nil {
				return err
			}
			rt.Output().Info(fmt.Sprintf("Created %s (%s)", created.DisplayName(), partition.FormatSize(created.SizeMB)))
			return sh.printDisk(rt, diskID)
		}),
		sh.command(tui.CommandSpec{
			Name:        "delete",
			Summary:     "Delete a partition",
			Description: "Deletes a partition and merges the freed space with its neighbours.",
			Context:     "segment",
			Aliases:     []string{"rm"},
			Args:        []tui.ArgSpec{stringArg("segment", "Segment id or position", true)},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			diskID, segmentID, err := sh.segmentArg(rt, input)
			if err != nil {
				return err
			}
			if err := sh.app.sim.DeletePartition(sh.ctx, diskID, segmentID); err != nil {
				return err
			}
			return sh.printDisk(rt, diskID)
		}),
		sh.resizeCommand("shrink", "Shrink a partition, freeing space after it", sh.app.sim.ShrinkPartition),
		sh.resizeCommand("extend", "Extend a partition into the free space after it", sh.app.sim.ExtendPartition),
		sh.command(tui.CommandSpec{
			Name:        "format",
			Summary:     "Format a partition",
			Description: "Sets the file system and label of a partition.",
			Context:     "segment",
			Args: []tui.ArgSpec{
				stringArg("segment", "Segment id or position", true),
				stringArg("fs", "File system (NTFS, FAT32, exFAT)", true),
				stringArg("label", "Volume label", false),
			},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			diskID, segmentID, err := sh.segmentArg(rt, input)
			if err != nil {
				return err
			}
			fs, err := partition.ParseFileSystem(input.Args.String("fs"))
			if err != nil {
				return err
			}
			if err := sh.app.sim.FormatPartition(sh.ctx, diskID, segmentID, input.Args.String("label"), fs); err != nil {
				return err
			}
			return sh.printDisk(rt, diskID)
		}),
		sh.command(tui.CommandSpec{
			Name:        "letter",
			Summary:     "Change a drive letter",
			Description: "Assigns a drive letter, or removes it when none is given.",
			Context:     "segment",
			Args: []tui.ArgSpec{
				stringArg("segment", "Segment id or position", true),
				stringArg("letter", "New drive letter", false),
			},
		}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
			diskID, segmentID, err := sh.segmentArg(rt, input)
			if err != nil {
				return err
			}
			letter := strings.TrimSuffix(input.Args.String("letter"), ":")
			if err := sh.app.sim.ChangeDriveLetter(sh.ctx, diskID, segmentID, letter); err != nil {
				return err
			}
			return sh.printDisk(rt, diskID)
		}),
	}
}

func (sh *shell) resizeCommand(name, summary string, op func(ctx context.Context, diskID, segmentID string, amountMB int64) error) tui.CommandFactory {
	return sh.command(tui.CommandSpec{
		Name:        name,
		Summary:     summary,
		Description: summary + ". AMOUNT is MB unless suffixed with G or T.",
		Context:     "segment",
		Args: []tui.ArgSpec{
			stringArg("segment", "Segment id or position", true),
			stringArg("amount", "Amount to move", true),
		},
	}, func(rt tui.CommandRuntime, input tui.CommandInput) error {
		diskID, segmentID, err := sh.segmentArg(rt, input)
		if err != nil {
			return err
		}
		amount, err := parseSizeWithUnits(input.Args.String("amount"))
		if err != nil {
			return err
		}
		if err := op(sh.ctx, diskID, segmentID, amount); err != nil {
			return err
		}
		return sh.printDisk(rt, diskID)
	})
}

// initPlanetUI initializes planetui with commands and contexts
func (sh *shell) initPlanetUI() {
	tui.RegisterContext("disk", "Disk commands")
	tui.RegisterContext("segment", "Segment commands on the selected disk")

	for _, f := range sh.diskCommands() {
		tui.RegisterCommand(f)
	}
	for _, f := range sh.segmentCommands() {
		tui.RegisterCommand(f)
	}
}

// runShell runs the planetui command shell until EOF.
func runShell(ctx context.Context, a *app) error {
	sh := &shell{ctx: ctx, app: a}
	sh.initPlanetUI()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "disksim> ",
		HistoryFile:     filepath.Join(config.Dir(), "shell_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer rl.Close()

	return tui.Run(rl)
}
