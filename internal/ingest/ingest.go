// Package ingest reads upstream raid event exports (JSON array, NDJSON or
// CSV, optionally zstd- or gzip-compressed) into raid event records.
package ingest

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-raid-metrics/internal/model"
)

// ErrUnsupportedFormat is returned when the input is neither JSON, NDJSON nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats.
const (
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
	FormatCSV    = "csv"
)

// Compressions.
const (
	CompressionNone = ""
	CompressionZstd = "zstd"
	CompressionGzip = "gzip"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
	utf8BOM   = []byte{0xef, 0xbb, 0xbf}
)

// Options fill in values the export may not carry.
type Options struct {
	Guild  string // used when a record has no guild
	Season string // used when a record has no season
}

// Result is one parsed export.
type Result struct {
	BatchID     string
	Hash        string // sha256 of the file as read, hex
	Name        string
	Format      string
	Compression string
	Records     []model.RaidEventRecord
}

// ParseFile parses the export at path.
func ParseFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return Parse(f, filepath.Base(path), opts)
}

// Parse reads an export from r. name is used for the batch record and as a
// format hint (".csv").
func Parse(r io.Reader, name string, opts Options) (*Result, error) {
	h := sha256.New()
	br := bufio.NewReader(io.TeeReader(r, h))

	res := &Result{BatchID: uuid.NewString(), Name: name}

	src, closeFn, compression, err := decompress(br)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	res.Compression = compression

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	// drain so the hash covers the whole file
	if _, err := io.Copy(io.Discard, br); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	res.Hash = fmt.Sprintf("%x", h.Sum(nil))

	format, err := detectFormat(data, name)
	if err != nil {
		return nil, err
	}
	res.Format = format

	switch format {
	case FormatJSON:
		res.Records, err = decodeJSON(data)
	case FormatNDJSON:
		res.Records, err = decodeNDJSON(data)
	case FormatCSV:
		res.Records, err = decodeCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	for i := range res.Records {
		if res.Records[i].Guild == "" {
			res.Records[i].Guild = opts.Guild
		}
		if res.Records[i].Season == "" {
			res.Records[i].Season = opts.Season
		}
	}
	return res, nil
}

// decompress sniffs the magic bytes and wraps br in the matching decoder.
func decompress(br *bufio.Reader) (io.Reader, func(), string, error) {
	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, "", fmt.Errorf("zstd: %w", err)
		}
		return dec, dec.Close, CompressionZstd, nil
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, "", fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { gz.Close() }, CompressionGzip, nil
	default:
		return br, func() {}, CompressionNone, nil
	}
}

// detectFormat looks at the first non-blank byte, falling back to the file
// name for CSV.
func detectFormat(data []byte, name string) (string, error) {
	trimmed := bytes.TrimPrefix(data, utf8BOM)
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: empty input", ErrUnsupportedFormat)
	}
	switch trimmed[0] {
	case '[':
		return FormatJSON, nil
	case '{':
		if isWrappedJSON(trimmed) {
			return FormatJSON, nil
		}
		return FormatNDJSON, nil
	}

	base := strings.ToLower(name)
	for _, ext := range []string{".zst", ".gz"} {
		base = strings.TrimSuffix(base, ext)
	}
	firstLine, _, _ := bytes.Cut(trimmed, []byte("\n"))
	if strings.HasSuffix(base, ".csv") || bytes.Contains(firstLine, []byte(",")) {
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}
