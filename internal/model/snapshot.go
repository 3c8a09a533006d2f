package model

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// DefaultSnapshotPath is where passes write their restaurant snapshot.
const DefaultSnapshotPath = "restaurants.json"

// EncodeSnapshot writes restaurants as an indented JSON array.
func EncodeSnapshot(w io.Writer, restaurants []*Restaurant) error {
	if restaurants == nil {
		restaurants = []*Restaurant{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(restaurants); err != nil {
		return eris.Wrap(err, "snapshot: encode")
	}
	return nil
}

// DecodeSnapshot reads a JSON array written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) ([]*Restaurant, error) {
	var out []*Restaurant
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "snapshot: decode")
	}
	return out, nil
}

// WriteSnapshot replaces the file at path atomically.
func WriteSnapshot(path string, restaurants []*Restaurant) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return eris.Wrap(err, "snapshot: create temp")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := EncodeSnapshot(tmp, restaurants); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "snapshot: close temp")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "snapshot: rename to %s", path)
	}
	return nil
}

// ReadSnapshot loads the snapshot at path.
func ReadSnapshot(path string) ([]*Restaurant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return DecodeSnapshot(f)
}
