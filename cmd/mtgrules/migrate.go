package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/fs"
)

// Run executes the migrate command.
func (c *MigrateCmd) Run(deps *Dependencies) error {
	if err := checkMigratePaths(c.Src, c.Dst); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	src := fs.NewContentStore(c.Src)
	if err := fs.NewWriter(c.Dst).Migrate(deps.Ctx, src); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Wrote %s, %s and %s to %s\n", fs.RulesFile, fs.IndexFile, fs.GlossaryFile, c.Dst)
	return nil
}

// checkMigratePaths rejects a destination that is, or contains, the source.
func checkMigratePaths(src, dst string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return mtgrules.Errorf(mtgrules.EINVALID, "source %s: %v", src, err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return mtgrules.Errorf(mtgrules.EINVALID, "destination %s: %v", dst, err)
	}
	if absSrc == absDst {
		return mtgrules.Errorf(mtgrules.EINVALID, "source and destination must differ")
	}
	rel, err := filepath.Rel(absDst, absSrc)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return mtgrules.Errorf(mtgrules.EINVALID, "destination %s contains source %s", dst, src)
	}
	return nil
}
