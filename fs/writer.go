package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/mtgrules"
)

// Writer writes data files with atomic update semantics. Files are saved
// to a sibling temporary directory and moved into place on Commit.
type Writer struct {
	baseDir string
	name    string
}

// NewWriter creates a Writer for the directory dst.
// Files are saved to dst.tmp and moved to dst on Commit.
func NewWriter(dst string) *Writer {
	dst = filepath.Clean(dst)
	return &Writer{
		baseDir: filepath.Dir(dst),
		name:    filepath.Base(dst),
	}
}

func (w *Writer) tempDir() string {
	return filepath.Join(w.baseDir, w.name+".tmp")
}

func (w *Writer) finalDir() string {
	return filepath.Join(w.baseDir, w.name)
}

// Save writes v as indented JSON to name in the temporary directory.
func (w *Writer) Save(name string, v any) error {
	if err := os.MkdirAll(w.tempDir(), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.tempDir(), name), append(data, '\n'), 0644)
}

// Commit replaces the destination directory with the temporary one.
// A destination holding anything other than data files is left alone.
func (w *Writer) Commit() error {
	if err := w.checkDestination(); err != nil {
		return err
	}
	if err := os.RemoveAll(w.finalDir()); err != nil {
		return err
	}
	return os.Rename(w.tempDir(), w.finalDir())
}

// checkDestination returns ECONFLICT when the destination exists and
// holds entries Commit would otherwise delete.
func (w *Writer) checkDestination() error {
	entries, err := os.ReadDir(w.finalDir())
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return mtgrules.Errorf(mtgrules.EINVALID, "destination %s: %v", w.finalDir(), err)
	}
	for _, e := range entries {
		if e.IsDir() || !isDataFile(e.Name()) {
			return mtgrules.Errorf(mtgrules.ECONFLICT, "destination %s contains %s, refusing to replace it", w.finalDir(), e.Name())
		}
	}
	return nil
}

func isDataFile(name string) bool {
	switch name {
	case RulesFile, IndexFile, GlossaryFile:
		return true
	}
	return false
}

// Abort discards the temporary directory.
func (w *Writer) Abort() error {
	return os.RemoveAll(w.tempDir())
}

// Migrate reads every document from src and writes the canonical nested
// rules, a matching index and the glossary to the destination.
// The destination is only replaced if every file was written.
func (w *Writer) Migrate(ctx context.Context, src mtgrules.ContentService) (err error) {
	defer func() {
		if err != nil {
			_ = w.Abort()
		}
	}()

	if err := w.checkDestination(); err != nil {
		return err
	}

	doc, err := src.Rules(ctx)
	if err != nil {
		return err
	}
	glossary, err := src.Glossary(ctx)
	if err != nil {
		return err
	}

	nested := mtgrules.Migrate(doc)
	if err := w.Save(RulesFile, nested); err != nil {
		return err
	}
	if err := w.Save(IndexFile, mtgrules.BuildIndex(nested)); err != nil {
		return err
	}
	if err := w.Save(GlossaryFile, glossary); err != nil {
		return err
	}
	return w.Commit()
}
