// Package backup takes compressed point-in-time snapshots of a database
// file and restores them, as a separate operational artifact outside the
// paged file format itself.
//
// A snapshot is a 1-byte format.CompressionType tag followed by the
// compressed bytes of the whole file, produced via package compress's
// codec registry.
package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchpaulus/stsd/compress"
	"github.com/mitchpaulus/stsd/errs"
	"github.com/mitchpaulus/stsd/format"
)

// Snapshot reads the database file at path and returns a compressed
// snapshot: a 1-byte codec tag followed by the compressed file contents.
func Snapshot(path string, codec format.CompressionType) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c, err := compress.GetCodec(codec)
	if err != nil {
		return nil, err
	}

	compressed, err := c.Compress(raw)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 1+len(compressed))
	out[0] = byte(codec)
	copy(out[1:], compressed)
	return out, nil
}

// Restore decompresses snapshot and writes the result to path, atomically
// via the same write-to-temp-then-rename pattern the paged file manager
// uses for region growth. It refuses to overwrite an existing file unless
// overwrite is true.
func Restore(path string, snapshot []byte, overwrite bool) error {
	if len(snapshot) < 1 {
		return fmt.Errorf("%w: empty snapshot", errs.ErrCorruptPage)
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", errs.ErrFileExists, path)
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	codec := format.CompressionType(snapshot[0])
	c, err := compress.GetCodec(codec)
	if err != nil {
		return err
	}

	raw, err := c.Decompress(snapshot[1:])
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".restore-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}
