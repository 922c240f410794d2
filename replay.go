package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"disksim/pkg/partition"
	"disksim/pkg/simulator"

	"github.com/gosuri/uilive"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted list of operations.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one operation. Segment is the 1-based position on the disk at the
// time the step runs. Expect names the error kind the step should fail with.
type Step struct {
	Op         string `yaml:"op"`
	Disk       string `yaml:"disk"`
	Segment    int    `yaml:"segment"`
	SizeMB     int64  `yaml:"size_mb"`
	AmountMB   int64  `yaml:"amount_mb"`
	Letter     string `yaml:"letter"`
	Label      string `yaml:"label"`
	FileSystem string `yaml:"file_system"`
	Mission    int    `yaml:"mission"`
	Expect     string `yaml:"expect"`
}

func (st Step) String() string {
	switch st.Op {
	case "usb", "reset":
		return st.Op
	case "check":
		return fmt.Sprintf("check mission %d", st.Mission)
	}
	return fmt.Sprintf("%s %s #%d", st.Op, st.Disk, st.Segment)
}

// ReplayResult summarizes a run.
type ReplayResult struct {
	Applied  int
	Rejected int
	Failed   []string
}

func loadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return Scenario{}, fmt.Errorf("scenario has no steps")
	}
	return sc, nil
}

// runReplay applies every step in order and reports progress on w.
// With keepGoing unset it stops at the first step whose outcome differs from
// its expectation.
func runReplay(ctx context.Context, sim *simulator.Service, sc Scenario, w *uilive.Writer, keepGoing bool) (ReplayResult, error) {
	var result ReplayResult
	total := len(sc.Steps)

	for i, step := range sc.Steps {
		err := applyStep(ctx, sim, step)
		code := partition.Code(err)

		switch {
		case step.Expect == "" && err == nil:
			result.Applied++
		case step.Expect != "" && code == step.Expect:
			result.Rejected++
		default:
			got := "ok"
			if err != nil {
				got = describeError(err)
			}
			want := step.Expect
			if want == "" {
				want = "ok"
			}
			msg := fmt.Sprintf("step %d (%s): expected %s, got %s", i+1, step, want, got)
			result.Failed = append(result.Failed, msg)
			_, _ = fmt.Fprintln(w.Bypass(), msg)
			if !keepGoing {
				_ = w.Flush()
				return result, fmt.Errorf("replay stopped at %s", msg)
			}
		}

		free := int64(-1)
		if d, derr := sim.Disk(partition.InitialDiskID); derr == nil {
			free = d.FreeMB()
		}
		_, _ = fmt.Fprintf(w, "Step %d/%d: %s\n", i+1, total, step)
		_, _ = fmt.Fprintf(w, "Applied: %d  Rejected as expected: %d  Failed: %d\n", result.Applied, result.Rejected, len(result.Failed))
		if free >= 0 {
			_, _ = fmt.Fprintf(w, "Disk 0 free: %s\n", partition.FormatSize(free))
		}
		_ = w.Flush()
	}

	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%d of %d steps did not match", len(result.Failed), total)
	}
	return result, nil
}

func applyStep(ctx context.Context, sim *simulator.Service, step Step) error {
	switch step.Op {
	case "usb":
		_, err := sim.AddRemovableDisk(ctx)
		return err
	case "reset":
		return sim.Reset(ctx)
	case "check":
		entry, err := sim.CheckMission(ctx, step.Mission)
		if err != nil {
			return err
		}
		if !entry.Success {
			return fmt.Errorf("mission %d not complete", step.Mission)
		}
		return nil
	}

	segmentID, err := resolveSegment(sim, step.Disk, strconv.Itoa(step.Segment))
	if err != nil {
		return err
	}

	switch step.Op {
	case "create":
		fs, err := parseOptionalFileSystem(step.FileSystem)
		if err != nil {
			return err
		}
		_, err = sim.CreatePartition(ctx, simulator.CreateRequest{
			DiskID:      step.Disk,
			SegmentID:   segmentID,
			SizeMB:      step.SizeMB,
			DriveLetter: step.Letter,
			Label:       step.Label,
			FileSystem:  fs,
		})
		return err
	case "delete":
		return sim.DeletePartition(ctx, step.Disk, segmentID)
	case "shrink":
		return sim.ShrinkPartition(ctx, step.Disk, segmentID, step.AmountMB)
	case "extend":
		return sim.ExtendPartition(ctx, step.Disk, segmentID, step.AmountMB)
	case "format":
		fs, err := partition.ParseFileSystem(step.FileSystem)
		if err != nil {
			return err
		}
		return sim.FormatPartition(ctx, step.Disk, segmentID, step.Label, fs)
	case "letter":
		return sim.ChangeDriveLetter(ctx, step.Disk, segmentID, step.Letter)
	default:
		return fmt.Errorf("unknown operation %q", step.Op)
	}
}

// newReplayWriter returns a live writer on out.
func newReplayWriter(out io.Writer) *uilive.Writer {
	w := uilive.New()
	w.Out = out
	return w
}
