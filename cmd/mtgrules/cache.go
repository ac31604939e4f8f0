package main

import (
	"fmt"

	"github.com/fwojciec/mtgrules"
)

// Run executes the cache status command.
func (c *CacheStatusCmd) Run(deps *Dependencies) error {
	names, err := deps.Storage.Keys(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	if len(names) == 0 {
		fmt.Fprintln(deps.Stdout, "No caches stored. Use 'mtgrules cache install' to create one.")
		return nil
	}

	for _, name := range names {
		cache, err := deps.Storage.Open(deps.Ctx, name)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
			return err
		}
		keys, err := cache.Keys(deps.Ctx)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
			return err
		}
		marker := ""
		if name == deps.Config.CacheName {
			marker = " (current)"
		}
		fmt.Fprintf(deps.Stdout, "%s%s  %d entries\n", name, marker, len(keys))
	}
	return nil
}

// Run executes the cache install command. Unlike serve, a failed install
// is an error even when an older copy of the cache exists.
func (c *CacheInstallCmd) Run(deps *Dependencies) error {
	manager, err := newManager(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}
	defer manager.Close()

	if err := manager.Install(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}
	if err := manager.Activate(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	st, err := manager.Status(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Installed %s: %d resources cached\n", st.Cache, st.Entries)
	return nil
}

// Run executes the cache purge command.
func (c *CachePurgeCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return mtgrules.Errorf(mtgrules.EINVALID, "use --force to confirm deletion")
	}

	names := []string{c.Name}
	if c.Name == "" {
		var err error
		if names, err = deps.Storage.Keys(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
			return err
		}
	}

	for _, name := range names {
		deleted, err := deps.Storage.Delete(deps.Ctx, name)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
			return err
		}
		if !deleted {
			fmt.Fprintf(deps.Stderr, "error: cache %q not found. Use 'mtgrules cache status' to see stored caches.\n", name)
			return mtgrules.Errorf(mtgrules.ENOTFOUND, "cache %q not found", name)
		}
		fmt.Fprintf(deps.Stdout, "Deleted cache %q\n", name)
	}
	return nil
}
