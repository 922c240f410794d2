package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"disksim/pkg/partition"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// zipEntryName is the single entry of a zip snapshot.
const zipEntryName = "snapshot.json"

var compressionAlgorithms = []string{"gzip", "zlib", "bzip2", "snappy", "s2", "zstd", "zip"}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// getCompressionExtension returns the file extension for a given compression algorithm
func getCompressionExtension(compressionAlgorithm string) (string, error) {
	switch compressionAlgorithm {
	case "none":
		return ".json", nil
	case "gzip":
		return ".gz", nil
	case "zlib":
		return ".zlib", nil
	case "bzip2":
		return ".bz2", nil
	case "snappy":
		return ".snappy", nil
	case "s2":
		return ".s2", nil
	case "zstd":
		return ".zst", nil
	case "zip":
		return ".zip", nil
	default:
		return "", fmt.Errorf("unsupported compression algorithm: %s", compressionAlgorithm)
	}
}

// algorithmFromPath picks the algorithm from a file extension. Unknown
// extensions are read as plain JSON.
func algorithmFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for _, algorithm := range compressionAlgorithms {
		if want, _ := getCompressionExtension(algorithm); want == ext {
			return algorithm
		}
	}
	return "none"
}

// createCompressionWriter creates a compression writer based on the algorithm
// Returns the writer, a zip writer (if applicable), and an error
func createCompressionWriter(algorithm string, output io.Writer) (io.Writer, *zip.Writer, error) {
	switch algorithm {
	case "none":
		return output, nil, nil
	case "gzip":
		return gzip.NewWriter(output), nil, nil
	case "zlib":
		return zlib.NewWriter(output), nil, nil
	case "bzip2":
		writer, err := bzip2.NewWriter(output, &bzip2.WriterConfig{})
		return writer, nil, err
	case "snappy":
		return snappy.NewBufferedWriter(output), nil, nil
	case "s2":
		return s2.NewWriter(output), nil, nil
	case "zstd":
		writer, err := zstd.NewWriter(output)
		return writer, nil, err
	case "zip":
		zipWriter := zip.NewWriter(output)
		zipFile, err := zipWriter.Create(zipEntryName)
		if err != nil {
			_ = zipWriter.Close()
			return nil, nil, fmt.Errorf("failed to create zip entry: %w", err)
		}
		return zipFile, zipWriter, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}
}

// createDecompressionReader undoes createCompressionWriter.
func createDecompressionReader(algorithm string, input io.Reader) (io.ReadCloser, error) {
	switch algorithm {
	case "none":
		return io.NopCloser(input), nil
	case "gzip":
		return gzip.NewReader(input)
	case "zlib":
		return zlib.NewReader(input)
	case "bzip2":
		return bzip2.NewReader(input, &bzip2.ReaderConfig{})
	case "snappy":
		return io.NopCloser(snappy.NewReader(input)), nil
	case "s2":
		return io.NopCloser(s2.NewReader(input)), nil
	case "zstd":
		decoder, err := zstd.NewReader(input)
		if err != nil {
			return nil, err
		}
		return decoder.IOReadCloser(), nil
	case "zip":
		data, err := io.ReadAll(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read zip archive: %w", err)
		}
		archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to open zip archive: %w", err)
		}
		for _, f := range archive.File {
			if f.Name == zipEntryName {
				return f.Open()
			}
		}
		return nil, fmt.Errorf("zip archive has no %s entry", zipEntryName)
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}
}

// writeSnapshot encodes snap as JSON through the chosen compressor and
// returns the number of compressed bytes written.
func writeSnapshot(output io.Writer, snap partition.Snapshot, algorithm string) (int64, error) {
	cw := &countingWriter{w: output}
	compressedWriter, zipWriter, err := createCompressionWriter(algorithm, cw)
	if err != nil {
		return 0, fmt.Errorf("failed to create compression writer: %w", err)
	}

	enc := json.NewEncoder(compressedWriter)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return cw.count, fmt.Errorf("failed to write snapshot: %w", err)
	}

	if zipWriter != nil {
		if err := zipWriter.Close(); err != nil {
			return cw.count, fmt.Errorf("failed to close zip writer: %w", err)
		}
	} else if wc, ok := compressedWriter.(io.WriteCloser); ok {
		if err := wc.Close(); err != nil {
			return cw.count, fmt.Errorf("failed to close compression writer: %w", err)
		}
	}
	return cw.count, nil
}

// readSnapshot decodes a snapshot written by writeSnapshot.
func readSnapshot(input io.Reader, algorithm string) (partition.Snapshot, error) {
	reader, err := createDecompressionReader(algorithm, input)
	if err != nil {
		return partition.Snapshot{}, fmt.Errorf("failed to open %s stream: %w", algorithm, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	var snap partition.Snapshot
	if err := json.NewDecoder(reader).Decode(&snap); err != nil {
		return partition.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// exportSnapshotFile writes snap to outputfile plus the algorithm's extension
// unless the name already carries it. It returns the final path.
func exportSnapshotFile(outputfile string, snap partition.Snapshot, algorithm string) (string, error) {
	extension, err := getCompressionExtension(algorithm)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(outputfile), extension) {
		outputfile += extension
	}

	output, err := os.Create(outputfile)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	written, err := writeSnapshot(output, snap, algorithm)
	if err != nil {
		_ = output.Close()
		return "", err
	}
	if err := output.Close(); err != nil {
		return "", fmt.Errorf("failed to close output file: %w", err)
	}

	raw, _ := json.Marshal(snap)
	compressionRatio := "N/A"
	if written > 0 {
		compressionRatio = fmt.Sprintf("%.2f:1", float64(len(raw))/float64(written))
	}
	fmt.Printf("Written: %s (%d bytes) Compression ratio: %s\n", outputfile, written, compressionRatio)
	return outputfile, nil
}

// importSnapshotFile reads a snapshot, picking the decompressor from the extension.
func importSnapshotFile(path string) (partition.Snapshot, error) {
	input, err := os.Open(path)
	if err != nil {
		return partition.Snapshot{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() {
		_ = input.Close()
	}()
	return readSnapshot(input, algorithmFromPath(path))
}
