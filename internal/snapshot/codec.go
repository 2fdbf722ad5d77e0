// Package snapshot implements the Snapshot Codec (C6): serializing the
// Index Store to a single on-disk artifact and loading it back.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	prismerrors "github.com/standardbeagle/prismd/internal/errors"
	"github.com/standardbeagle/prismd/internal/index"
	"github.com/standardbeagle/prismd/internal/version"
)

// headerPlain and headerGzip are the on-disk header bytes distinguishing
// an uncompressed body from a gzip-compressed one, per §4.6.
const (
	headerPlain byte = 0x00
	headerGzip  byte = 0x01
)

// gzipThreshold is the serialized-size cutoff above which save
// compresses the body, per §4.6's default of 8 KiB.
const gzipThreshold = 8 * 1024

// FileName is the well-known snapshot file under a project's state
// directory (`<project_root>/.prism/index.snap`).
const FileName = "index.snap"

// wireSnapshot is the on-disk shape of an IndexStore. Field names are
// deliberately short; this is a private wire format, not a public API.
// The InvertedIndex is deliberately absent: per §6, it is rebuilt on
// load from the FileRecords' lines rather than persisted.
type wireSnapshot struct {
	Version string               `json:"v"`
	Root    string               `json:"root"`
	Files   []*index.FileRecord  `json:"files"`
	Hashes  map[string]string    `json:"hashes"`
}

// Save writes store's current snapshot to path atomically: the body is
// serialized to a temp file in the same directory, then renamed over
// path. Grounded on sourcegraph-zoekt's
// cmd/zoekt-sourcegraph-indexserver/meta.go jsonMarshalTmpFile/os.Rename
// pattern (the teacher itself is an in-memory daemon with no on-disk
// snapshot layer of its own to draw from).
func Save(store *index.Store, path string) error {
	sn := store.Snapshot()
	wire := wireSnapshot{
		Version: sn.Version,
		Root:    sn.Root,
		Files:   sn.Files,
		Hashes:  sn.Hashes,
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	header := headerPlain
	if len(body) > gzipThreshold {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(body); err != nil {
			return err
		}
		if err := gw.Close(); err != nil {
			return err
		}
		body = buf.Bytes()
		header = headerGzip
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write([]byte{header}); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Load reads path and restores store from it. A missing file returns
// (false, nil): there is simply nothing to load. A parse failure or a
// version mismatch also returns loaded=false, but with a non-nil
// *SnapshotCorruptError/*SnapshotStaleError describing what was found,
// so the Coordinator can log it before falling back to a full rebuild
// — per §4.6, none of these conditions are fatal to the caller.
func Load(path string, store *index.Store) (loaded bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, prismerrors.NewSnapshotCorruptError(path, err)
	}
	if len(raw) == 0 {
		return false, prismerrors.NewSnapshotCorruptError(path, io.ErrUnexpectedEOF)
	}

	header, body := raw[0], raw[1:]

	var plain []byte
	switch header {
	case headerPlain:
		plain = body
	case headerGzip:
		gr, gzErr := gzip.NewReader(bytes.NewReader(body))
		if gzErr != nil {
			return false, prismerrors.NewSnapshotCorruptError(path, gzErr)
		}
		defer gr.Close()
		decompressed, readErr := io.ReadAll(gr)
		if readErr != nil {
			return false, prismerrors.NewSnapshotCorruptError(path, readErr)
		}
		plain = decompressed
	default:
		// An unrecognized header byte isn't necessarily corruption: a
		// snapshot predating the header convention is indistinguishable
		// from one with a bad first byte until we've actually tried to
		// parse it. Per §8, attempt the whole payload (including the
		// byte we read as "header") as plain JSON before giving up.
		plain = raw
	}

	var wire wireSnapshot
	if jsonErr := json.Unmarshal(plain, &wire); jsonErr != nil {
		if header != headerPlain && header != headerGzip {
			return false, prismerrors.NewSnapshotCorruptError(path, errUnknownHeader(header))
		}
		return false, prismerrors.NewSnapshotCorruptError(path, jsonErr)
	}

	if wire.Version != version.SnapshotVersion {
		return false, prismerrors.NewSnapshotStaleError(path, wire.Version, version.SnapshotVersion)
	}

	inverted := index.RebuildInverted(wire.Files)
	store.Restore(wire.Version, wire.Root, wire.Files, inverted, wire.Hashes)
	return true, nil
}

type unknownHeaderError struct{ b byte }

func (e unknownHeaderError) Error() string {
	return "unrecognized snapshot header byte"
}

func errUnknownHeader(b byte) error { return unknownHeaderError{b: b} }
