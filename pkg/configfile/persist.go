package configfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/pkg/activity"
)

var errBlankDocument = fmt.Errorf("%w: document is empty", morphon.ErrDecodeFailure)

func (f *File) codecFor(path string) Codec {
	if f.cfg.codec != nil {
		return f.cfg.codec
	}
	if path == "" {
		return JSONCodec{}
	}
	return CodecForPath(path)
}

// Encode renders the document with the configured codec, JSON by default.
func (f *File) Encode() ([]byte, error) {
	return f.encode(f.codecFor(""))
}

func (f *File) encode(codec Codec) ([]byte, error) {
	data, err := codec.Encode(f.sections)
	if err != nil {
		return nil, &morphon.Error{Op: "encode", Err: err}
	}
	return data, nil
}

// Decode replaces the document with the one in data. On any failure the
// current content is kept.
func (f *File) Decode(data []byte) error {
	return f.decode(f.codecFor(""), data)
}

func (f *File) decode(codec Codec, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &morphon.Error{Op: "decode", Err: errBlankDocument}
	}
	sections, err := codec.Decode(data)
	if err != nil {
		return &morphon.Error{Op: "decode", Err: err}
	}
	f.sections = sections
	return nil
}

// WriteFile encodes the document with the codec for path and replaces path
// through a temporary file in the same directory.
func (f *File) WriteFile(path string) error {
	data, err := f.encode(f.codecFor(path))
	if err != nil {
		return &morphon.Error{Op: "save", Key: path, Err: err}
	}
	if err := writeAtomic(path, data); err != nil {
		return &morphon.Error{Op: "save", Key: path, Err: fmt.Errorf("%w: %w", morphon.ErrIOFailure, err)}
	}
	f.name = path
	f.emit(activity.VerbSaved, "", "", nil)
	return nil
}

// Save is WriteFile reporting success as a bool. Failures go to the
// diagnostic logger.
func (f *File) Save(path string) bool {
	if err := f.WriteFile(path); err != nil {
		f.logFailure("save", path, err)
		return false
	}
	return true
}

// ReadFile replaces the document with the content of path, decoded with the
// codec for path. Blank files fail. On any failure the current content is
// kept.
func (f *File) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &morphon.Error{Op: "load", Key: path, Err: fmt.Errorf("%w: %w", morphon.ErrIOFailure, err)}
	}
	if err := f.decode(f.codecFor(path), data); err != nil {
		return &morphon.Error{Op: "load", Key: path, Err: err}
	}
	f.name = path
	f.emit(activity.VerbLoaded, "", "", nil)
	return nil
}

// Load is ReadFile reporting success as a bool. Failures go to the
// diagnostic logger.
func (f *File) Load(path string) bool {
	if err := f.ReadFile(path); err != nil {
		f.logFailure("load", path, err)
		return false
	}
	return true
}

func (f *File) logFailure(op, path string, err error) {
	f.cfg.logger.LogDiagnostic(morphon.Diagnostic{Op: op, Path: path, Index: -1, Err: err})
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), targetMode(path)); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// targetMode keeps the permissions of an existing file at path, defaulting
// to 0644 for new files.
func targetMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return 0o644
}
