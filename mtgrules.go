// Package mtgrules provides an offline-capable reference server for the
// Magic: The Gathering comprehensive rules and glossary. It loads
// pre-generated rule and glossary documents, answers rule and glossary
// queries, and fronts the static reference site with a version-tagged,
// cache-first resource cache.
//
// This package contains domain types, interfaces and the pure query
// engines following Ben Johnson's Standard Package Layout. Implementations
// live in subdirectories named after their primary dependency (e.g.,
// sqlite/, bbolt/, http/, fsnotify/).
package mtgrules
