package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// writeFile creates path and fills it with write. The file is closed
// before returning so a failed flush is reported.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	return errors.Wrapf(writeClose(f, write), "writing %s", path)
}

func writeClose(w io.WriteCloser, write func(io.Writer) error) error {
	if err := write(w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
