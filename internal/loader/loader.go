// Package loader moves update-tuple streams in and out of Parquet
// files.
//
// It exists for the tooling around the trace: the inspector and the
// benchmarks read recorded update streams from files and replay them
// into a spine. The trace itself never touches storage.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"golang.org/x/sync/errgroup"
)

// UpdateRow is one update tuple in Parquet form.
type UpdateRow struct {
	Key   string `parquet:"key,zstd"`
	Val   int64  `parquet:"val"`
	Time  uint64 `parquet:"time"`
	Delta int64  `parquet:"delta"`
}

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm: snappy, zstd, lz4, gzip or none.
	Compression string
}

// DefaultOptions returns the default writer options.
func DefaultOptions() Options {
	return Options{Compression: "zstd"}
}

func codec(name string) compress.Codec {
	switch name {
	case "snappy":
		return &parquet.Snappy
	case "zstd":
		return &parquet.Zstd
	case "lz4":
		return &parquet.Lz4Raw
	case "gzip":
		return &parquet.Gzip
	case "none", "":
		return &parquet.Uncompressed
	default:
		return &parquet.Zstd
	}
}

// WriteFile writes rows to a Parquet file, creating parent directories
// as needed.
func WriteFile(path string, rows []UpdateRow, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	writer := parquet.NewGenericWriter[UpdateRow](f, parquet.Compression(codec(opts.Compression)))
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	return f.Close()
}

// ReadFile reads every row of a Parquet update-stream file.
func ReadFile(path string) ([]UpdateRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size(), parquet.ReadBufferSize(1024*1024))
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	reader := parquet.NewGenericReader[UpdateRow](pf)
	defer reader.Close()

	rows := make([]UpdateRow, reader.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return rows[:read], nil
}

// ReadFiles reads several update-stream files concurrently, preserving
// per-file order in the result.
func ReadFiles(paths []string) ([][]UpdateRow, error) {
	results := make([][]UpdateRow, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			rows, err := ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
