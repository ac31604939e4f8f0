package cache

// DefaultCacheName is the version-tagged name of the current cache.
// Bumping the version makes activation purge the previous cache.
const DefaultCacheName = "mtg-rules-v1"

// DefaultBasePath is the application scope.
const DefaultBasePath = "/mtg-rules/"

// DefaultManifest returns the resources precached on install, as paths
// under base.
func DefaultManifest(base string) []string {
	return []string{
		base,
		base + "categories",
		base + "glossary",
		base + "rules.json",
		base + "rules-index.json",
		base + "glossary.json",
		base + "mtg-16.png",
		base + "mtg-32.png",
		base + "mtg-180.png",
		base + "mtg-192.png",
		base + "mtg-512.png",
		base + "mtg-judge.png",
		base + "favicon.ico",
	}
}
