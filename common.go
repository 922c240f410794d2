package main

import (
	"fmt"
	"os"

	"disksim/pkg/partition"
)

func isPrintable(r rune) bool {
	return r >= 32 && r <= 126
}

// describeError renders an engine error for a dialog or terminal line.
func describeError(err error) string {
	code := partition.Code(err)
	if code == "" || code == "Internal" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", code, err)
}

// exitOnError prints err and exits non-zero.
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}
}

// parseOptionalFileSystem accepts any casing of a file system name. An empty
// name is passed through so the engine applies its default.
func parseOptionalFileSystem(name string) (partition.FileSystem, error) {
	if name == "" {
		return "", nil
	}
	return partition.ParseFileSystem(name)
}
