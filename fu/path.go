package fu

import (
	"go-ml.dev/pkg/iokit"
	"path/filepath"
)

/*
ModelPath resolves a bare model file name into the go-ml model cache,
paths with a directory part are used as is
*/
func ModelPath(s string) string {
	if filepath.IsAbs(s) || filepath.Dir(s) != "." {
		return s
	}
	return iokit.CacheFile(filepath.Join("go-ml", "Models", s))
}
