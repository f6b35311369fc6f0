// Package model defines the domain types shared by the resolver packages.
//
// # Identity and enrichment
//
// A [WheelKey] is the stable identity of one wheel artifact: project,
// version, best tag, filename, origin and hash. It is comparable and safe to
// use as a map key. Information learned later in a resolution (the full tag
// set, which environment tags it satisfies, where the metadata came from) is
// attached through [WheelKey.Enrich], which returns a [WheelKeyMetadata] and
// never alters the key itself.
//
// # Immutability
//
// [Environment] and [Requirement] are immutable once constructed; accessors
// return copies of slices and maps. A [Candidate] is immutable except for its
// dependency list, which is populated once, lazily, the first time a
// resolution asks for it.
package model
