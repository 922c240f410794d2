package main

import (
	"errors"
	"fmt"
	"strconv"

	"disksim/pkg/config"
	"disksim/pkg/partition"
	"disksim/pkg/server"
	"disksim/pkg/simulator"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the full-screen simulator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error { return runTUI(cmd.Context(), a) })
		},
	}
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive command shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error { return runShell(cmd.Context(), a) })
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show [DISK]",
		Aliases: []string{"ls", "list"},
		Short:   "Print the disk layout",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				disks := a.sim.Disks()
				if len(args) == 1 {
					d, err := a.sim.Disk(args[0])
					if err != nil {
						return err
					}
					disks = []partition.Disk{d}
				}
				printLayout(cmd.OutOrStdout(), disks)
				return nil
			})
		},
	}
}

// segmentCommand wires the DISK SEGMENT arguments shared by the operation commands.
func segmentCommand(use, short string, extra int, run func(cmd *cobra.Command, a *app, diskID, segmentID string, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2 + extra),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				segmentID, err := resolveSegment(a.sim, args[0], args[1])
				if err != nil {
					return err
				}
				if err := run(cmd, a, args[0], segmentID, args[2:]); err != nil {
					return errors.New(describeError(err))
				}
				d, err := a.sim.Disk(args[0])
				if err != nil {
					return err
				}
				printLayout(cmd.OutOrStdout(), []partition.Disk{d})
				return nil
			})
		},
	}
}

func newCreateCmd() *cobra.Command {
	var letter, label, fsName string
	cmd := segmentCommand("create DISK SEGMENT SIZE", "Create a partition in unallocated space", 1,
		func(cmd *cobra.Command, a *app, diskID, segmentID string, args []string) error {
			size, err := parseSizeWithUnits(args[0])
			if err != nil {
				return err
			}
			fs, err := parseOptionalFileSystem(fsName)
			if err != nil {
				return err
			}
			created, err := a.sim.CreatePartition(cmd.Context(), simulator.CreateRequest{
				DiskID:      diskID,
				SegmentID:   segmentID,
				SizeMB:      size,
				DriveLetter: letter,
				Label:       label,
				FileSystem:  fs,
			})
			if err != nil {
				return err
			}
			color.Green("Created %s (%s)", created.DisplayName(), partition.FormatSize(created.SizeMB))
			return nil
		})
	cmd.Flags().StringVarP(&letter, "letter", "l", "", "drive letter")
	cmd.Flags().StringVar(&label, "label", "", "volume label (default \"New Volume\")")
	cmd.Flags().StringVar(&fsName, "fs", "", "file system: NTFS, FAT32 or exFAT (default NTFS)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return segmentCommand("delete DISK SEGMENT", "Delete a partition", 0,
		func(cmd *cobra.Command, a *app, diskID, segmentID string, _ []string) error {
			return a.sim.DeletePartition(cmd.Context(), diskID, segmentID)
		})
}

func newShrinkCmd() *cobra.Command {
	return segmentCommand("shrink DISK SEGMENT AMOUNT", "Shrink a partition, freeing space after it", 1,
		func(cmd *cobra.Command, a *app, diskID, segmentID string, args []string) error {
			amount, err := parseSizeWithUnits(args[0])
			if err != nil {
				return err
			}
			return a.sim.ShrinkPartition(cmd.Context(), diskID, segmentID, amount)
		})
}

func newExtendCmd() *cobra.Command {
	return segmentCommand("extend DISK SEGMENT AMOUNT", "Extend a partition into the free space after it", 1,
		func(cmd *cobra.Command, a *app, diskID, segmentID string, args []string) error {
			amount, err := parseSizeWithUnits(args[0])
			if err != nil {
				return err
			}
			return a.sim.ExtendPartition(cmd.Context(), diskID, segmentID, amount)
		})
}

func newFormatCmd() *cobra.Command {
	var label, fsName string
	cmd := segmentCommand("format DISK SEGMENT", "Format a partition", 0,
		func(cmd *cobra.Command, a *app, diskID, segmentID string, _ []string) error {
			fs, err := partition.ParseFileSystem(fsName)
			if err != nil {
				return err
			}
			return a.sim.FormatPartition(cmd.Context(), diskID, segmentID, label, fs)
		})
	cmd.Flags().StringVar(&label, "label", "New Volume", "volume label")
	cmd.Flags().StringVar(&fsName, "fs", string(partition.FSNTFS), "file system: NTFS, FAT32 or exFAT")
	return cmd
}

func newLetterCmd() *cobra.Command {
	return segmentCommand("letter DISK SEGMENT LETTER", "Change a drive letter, \"-\" removes it", 1,
		func(cmd *cobra.Command, a *app, diskID, segmentID string, args []string) error {
			letter := args[0]
			if letter == "-" {
				letter = ""
			}
			return a.sim.ChangeDriveLetter(cmd.Context(), diskID, segmentID, letter)
		})
}

func newUSBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usb",
		Short: "Attach the removable disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				d, err := a.sim.AddRemovableDisk(cmd.Context())
				if err != nil {
					return errors.New(describeError(err))
				}
				printLayout(cmd.OutOrStdout(), []partition.Disk{d})
				return nil
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the initial disk layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.sim.Reset(cmd.Context()); err != nil {
					return err
				}
				printLayout(cmd.OutOrStdout(), a.sim.Disks())
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	flags := make(map[string]*bool)
	cmd := &cobra.Command{
		Use:   "export OUTPUT",
		Short: "Write the disk layout to a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selectedMethods := make([]string, 0)
			for _, method := range compressionAlgorithms {
				if *flags[method] {
					selectedMethods = append(selectedMethods, method)
				}
			}
			if len(selectedMethods) > 1 {
				return fmt.Errorf("you can only use one compression method")
			}
			algorithm := "none"
			if len(selectedMethods) == 1 {
				algorithm = selectedMethods[0]
			}

			return withApp(cmd, func(a *app) error {
				_, err := exportSnapshotFile(args[0], a.sim.Snapshot(), algorithm)
				return err
			})
		},
	}
	for _, method := range compressionAlgorithms {
		flags[method] = cmd.Flags().Bool(method, false, "compress with "+method)
	}
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the disk layout with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := importSnapshotFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				if err := a.sim.Restore(cmd.Context(), snap); err != nil {
					return errors.New(describeError(err))
				}
				printLayout(cmd.OutOrStdout(), a.sim.Disks())
				return nil
			})
		},
	}
}

func newReplayCmd() *cobra.Command {
	var keepGoing, fresh bool
	cmd := &cobra.Command{
		Use:   "replay SCENARIO",
		Short: "Run a YAML scenario of operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				if fresh {
					if err := a.sim.Reset(cmd.Context()); err != nil {
						return err
					}
				}
				if sc.Name != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Replaying %s\n", sc.Name)
				}

				writer := newReplayWriter(cmd.OutOrStdout())
				writer.Start()
				result, err := runReplay(cmd.Context(), a.sim, sc, writer, keepGoing)
				writer.Stop()

				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d, rejected as expected %d, failed %d\n", result.Applied, result.Rejected, len(result.Failed))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a step does not match")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "reset the layout before replaying")
	return cmd
}

func newTopicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topic MODULE IDENT",
		Short: "Resolve a topic identifier to its position and neighbors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("module must be a number: %q", args[0])
			}
			return withApp(cmd, func(a *app) error {
				index, err := a.catalog.ResolveTopicIndex(moduleID, args[1])
				if err != nil {
					return err
				}
				nav, err := a.catalog.Neighbors(moduleID, index)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				headerColor.Fprintf(out, "%s\n", nav.Topic.Title)
				fmt.Fprintf(out, "Module:   %d\nIndex:    %d\nPath:     %s\n", nav.Module, nav.Index, nav.Path)
				fmt.Fprintf(out, "Previous: %s\nNext:     %s\n", nav.PrevPath, nav.NextPath)
				return nil
			})
		},
	}
}

func newSidebarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sidebar",
		Short: "Show or change the expanded sidebar module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error { return printSidebar(cmd, a) })
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "toggle MODULE",
			Short: "Open a module, or collapse it when already open",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				moduleID, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("module must be a number: %q", args[0])
				}
				return withApp(cmd, func(a *app) error {
					if _, err := a.catalog.Module(moduleID); err != nil {
						return err
					}
					if _, err := a.sidebar.Toggle(cmd.Context(), moduleID); err != nil {
						return err
					}
					return printSidebar(cmd, a)
				})
			},
		},
		&cobra.Command{
			Use:   "sync PATH",
			Short: "Open the module a URL path points into",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(a *app) error {
					if _, _, err := a.sidebar.SyncFromPath(cmd.Context(), args[0]); err != nil {
						return err
					}
					return printSidebar(cmd, a)
				})
			},
		},
		&cobra.Command{
			Use:   "collapse",
			Short: "Collapse every module",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(a *app) error {
					if err := a.sidebar.Collapse(cmd.Context()); err != nil {
						return err
					}
					return printSidebar(cmd, a)
				})
			},
		},
	)
	return cmd
}

func printSidebar(cmd *cobra.Command, a *app) error {
	expanded, open, err := a.sidebar.Expanded(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, m := range a.catalog.Modules() {
		marker := "+"
		if open && m.ID == expanded {
			marker = "-"
		}
		fmt.Fprintf(out, "%s %2d. %s\n", marker, m.ID, m.Title)
		if open && m.ID == expanded {
			for i, t := range m.Topics {
				path, _ := a.catalog.TopicPath(m.ID, i)
				fmt.Fprintf(out, "      %-40s %s\n", t.Title, path)
			}
		}
	}
	return nil
}

func newMissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missions",
		Short: "List training missions and their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				statuses, current, err := a.sim.Missions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, st := range statuses {
					mark := "[ ]"
					if st.Completed {
						mark = "[x]"
					}
					line := fmt.Sprintf("%s %d. %s", mark, st.ID, st.Title)
					if st.ID == current {
						headerColor.Fprintln(out, line+"  <- current")
					} else {
						fmt.Fprintln(out, line)
					}
					for _, obj := range st.Objectives {
						fmt.Fprintf(out, "      - %s\n", obj)
					}
				}
				return nil
			})
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "check ID",
			Short: "Check a mission against the current layout",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("mission id must be a number: %q", args[0])
				}
				return withApp(cmd, func(a *app) error {
					entry, err := a.sim.CheckMission(cmd.Context(), id)
					if err != nil {
						return err
					}
					if entry.Success {
						color.Green("Mission %d complete (attempt %d)", id, entry.Attempts)
						return nil
					}
					color.Red("Mission %d not complete yet (attempt %d)", id, entry.Attempts)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "reset [ID]",
			Short: "Clear mission progress, for one mission or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					return withApp(cmd, func(a *app) error { return a.sim.ResetMissions(cmd.Context()) })
				}
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("mission id must be a number: %q", args[0])
				}
				return withApp(cmd, func(a *app) error { return a.sim.ResetMission(cmd.Context(), id) })
			},
		},
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				srv := server.NewServer(a.sim, a.catalog, a.sidebar, appversion)
				return srv.Start(cfg.Listen)
			})
		},
	}
	cmd.Flags().String("listen", "", "listen address (default from config, 127.0.0.1:8080)")
	_ = v.BindPFlag(config.KeyListen, cmd.Flags().Lookup("listen"))
	return cmd
}
