package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nacionrock/album-votes/poll"
)

// File is a CSV file that is read and written wholesale.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{
		path: path,
	}
}

func (f *File) Load(ctx context.Context) (poll.Table, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return poll.Empty(), loadError(fmt.Sprintf("unable to open %s", f.path), err)
	}

	defer file.Close()

	table, err := poll.ReadCSV(file)
	if err != nil {
		return poll.Empty(), loadError(fmt.Sprintf("invalid CSV file %s", f.path), err)
	}

	return table, nil
}

// Save writes the table to a temporary file in the same directory and renames
// it over the original, so a failed write leaves the previous contents intact.
func (f *File) Save(ctx context.Context, table poll.Table) error {
	if err := ctx.Err(); err != nil {
		return saveError("cancelled", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return saveError(fmt.Sprintf("unable to create directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, ".album-votes-*.csv")
	if err != nil {
		return saveError("unable to create temporary file", err)
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := poll.WriteCSV(tmp, table); err != nil {
		return saveError("error writing CSV file", err)
	}

	if err := tmp.Close(); err != nil {
		return saveError("error writing CSV file", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return saveError(fmt.Sprintf("unable to replace %s", f.path), err)
	}

	return nil
}

func (f *File) String() string {
	return fmt.Sprintf("csv:%s", f.path)
}
