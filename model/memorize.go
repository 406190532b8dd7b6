package model

import (
	"bufio"
	"github.com/ulikunitz/xz"
	"go-ml.dev/pkg/zorros"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

/*
Memorizer is a trained model able to serialize itself
*/
type Memorizer interface {
	Memorize(io.Writer) error
}

/*
Memorize writes xz compressed model into the file, an existing file is replaced
only when the model is written completely
*/
func Memorize(path string, m Memorizer) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return zorros.Trace(err)
	}
	f, err := ioutil.TempFile(dir, filepath.Base(path)+".*")
	if err != nil {
		return zorros.Trace(err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	bf := bufio.NewWriter(f)
	xw, err := xz.NewWriter(bf)
	if err != nil {
		return zorros.Trace(err)
	}
	if err = m.Memorize(xw); err != nil {
		return zorros.Wrapf(err, "failed to memorize model: %v", err.Error())
	}
	if err = xw.Close(); err != nil {
		return zorros.Trace(err)
	}
	if err = bf.Flush(); err != nil {
		return zorros.Trace(err)
	}
	if err = f.Close(); err != nil {
		return zorros.Trace(err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

type reader struct {
	io.Reader
	f *os.File
}

func (r reader) Close() error {
	return r.f.Close()
}

/*
Open returns decompressed content of a memorized model
*/
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, zorros.Trace(err)
	}
	xr, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, zorros.Wrapf(err, "%v is not a memorized model: %v", path, err.Error())
	}
	return reader{xr, f}, nil
}
