package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rollbook/internal/ledger"
)

func TestEncodeSnapshot_Format(t *testing.T) {
	data, err := EncodeSnapshot([]ledger.Record{
		{Serial: 1, ID: "STU-1", Name: "R&D <x>", Topic: "T", OwnerID: "a", CreatedAt: 3},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`{"version":1,"records":[{"serial":1,"id":"STU-1","name":"R&D <x>","topic":"T","owner_id":"a","referenced":false,"created_at":3}]}`,
		string(data))
}

func TestEncodeSnapshot_NilIsEmptyArray(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"records":[]}`, string(data))
}

func TestDecodeSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []ledger.Record
		wantErr string
	}{
		{name: "empty input", input: "", want: []ledger.Record{}},
		{name: "whitespace", input: "  \n", want: []ledger.Record{}},
		{name: "null records", input: `{"version":1,"records":null}`, want: []ledger.Record{}},
		{
			name:  "one record",
			input: `{"version":1,"records":[{"serial":4,"id":"STU-4","name":"N","topic":"T","owner_id":"o","referenced":true,"created_at":9}]}`,
			want: []ledger.Record{
				{Serial: 4, ID: "STU-4", Name: "N", Topic: "T", OwnerID: "o", Referenced: true, CreatedAt: 9},
			},
		},
		{name: "bad version", input: `{"version":2,"records":[]}`, wantErr: "unsupported version 2"},
		{name: "bad json", input: `{"version":`, wantErr: "decode snapshot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSnapshot([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    ExportFormat
		wantErr bool
	}{
		{"out.json", ExportJSON, false},
		{"OUT.JSON", ExportJSON, false},
		{"dir/out.yaml", ExportYAML, false},
		{"out.yml", ExportYAML, false},
		{"out.csv", "", true},
		{"out", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatForPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExport_JSONDecodes(t *testing.T) {
	want := sampleRecords()
	data, err := Export(want, ExportJSON)
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExport_YAML(t *testing.T) {
	want := sampleRecords()
	data, err := Export(want, ExportYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "owner_id: alice")

	var snap Snapshot
	require.NoError(t, yaml.Unmarshal(data, &snap))
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, want, snap.Records)
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(nil, ExportFormat("csv"))
	assert.Error(t, err)
}
