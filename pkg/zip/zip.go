package zip

import (
	"archive/zip"
	"fmt"
	"io"
)

// Entry is one file in an archive. Data is drained fully when the entry is
// written.
type Entry struct {
	Filename string
	Data     io.Reader
}

// WriteArchive streams a zip of the given entries to w. Entries with nil
// data are skipped.
func WriteArchive(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, entry := range entries {
		if entry.Data == nil {
			continue
		}
		ew, err := zw.Create(entry.Filename)
		if err != nil {
			return fmt.Errorf("zip entry %s: %w", entry.Filename, err)
		}
		if _, err := io.Copy(ew, entry.Data); err != nil {
			return fmt.Errorf("zip write %s: %w", entry.Filename, err)
		}
	}
	return zw.Close()
}
