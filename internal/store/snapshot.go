package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rollbook/internal/ledger"
)

// SnapshotVersion is the format version written by EncodeSnapshot.
const SnapshotVersion = 1

// Snapshot is the serialised form of the record collection.
type Snapshot struct {
	Version int             `json:"version" yaml:"version"`
	Records []ledger.Record `json:"records" yaml:"records"`
}

// EncodeSnapshot converts records to snapshot JSON.
// HTML escaping is disabled so names like "R&D" are stored verbatim.
func EncodeSnapshot(records []ledger.Record) ([]byte, error) {
	if records == nil {
		records = []ledger.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Snapshot{Version: SnapshotVersion, Records: records}); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeSnapshot parses snapshot JSON. Empty input decodes to an empty
// collection.
func DecodeSnapshot(data []byte) ([]ledger.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []ledger.Record{}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", snap.Version)
	}
	if snap.Records == nil {
		return []ledger.Record{}, nil
	}
	return snap.Records, nil
}

// ExportFormat selects the encoding used by Export.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// FormatForPath picks the export format from a file extension.
func FormatForPath(path string) (ExportFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ExportJSON, nil
	case ".yaml", ".yml":
		return ExportYAML, nil
	default:
		return "", fmt.Errorf("unsupported export extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Export encodes records as a snapshot document in the given format.
// JSON output is indented for reading; it decodes with DecodeSnapshot.
func Export(records []ledger.Record, format ExportFormat) ([]byte, error) {
	if records == nil {
		records = []ledger.Record{}
	}
	snap := Snapshot{Version: SnapshotVersion, Records: records}

	switch format {
	case ExportJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return nil, fmt.Errorf("export json: %w", err)
		}
		return buf.Bytes(), nil
	case ExportYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return nil, fmt.Errorf("export yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("export yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
