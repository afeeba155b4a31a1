package dbformat

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

// CreateDatabase prepares a fresh build directory for a new database at
// dir: every slice file and the index are assembled under a temporary
// sibling directory so a concurrent reader never observes a
// partially-written database (spec.md §6, "no partial database is left
// on a crash"). Call FinishDatabase once every StreamWriter and the
// index have been closed successfully.
//
// grailbio/base/file models individual blobs, not directories, so the
// directory-level rename-into-place step here uses the standard
// library directly; every file inside the directory goes through
// file.Create/file.Open (see writer.go, index.go, reader.go).
func CreateDatabase(ctx context.Context, dir string) (buildDir string, err error) {
	buildDir = dir + ".building"
	if err := os.RemoveAll(buildDir); err != nil {
		return "", errors.Wrapf(err, "dbformat: clear stale %s", buildDir)
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "dbformat: mkdir %s", buildDir)
	}
	return buildDir, nil
}

// FinishDatabase removes whatever exists at dir, then renames the
// completed build directory produced by CreateDatabase to dir. The two
// steps are not one atomic operation: between them nothing exists at dir,
// but a partially written database is never visible there.
func FinishDatabase(ctx context.Context, buildDir, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "dbformat: remove old %s", dir)
	}
	if err := os.Rename(buildDir, dir); err != nil {
		return errors.Wrapf(err, "dbformat: rename %s -> %s", buildDir, dir)
	}
	return nil
}

// AbandonDatabase removes a build directory after a failed run, so a
// subsequent CreateDatabase call starts clean.
func AbandonDatabase(ctx context.Context, buildDir string) error {
	return errors.Wrapf(os.RemoveAll(buildDir), "dbformat: remove %s", buildDir)
}
