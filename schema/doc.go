/*
Package schema binds plain Go structs onto strata document trees with
per-field modification tracking.

A schema struct embeds Flags and tags its fields:

	type Server struct {
		schema.Flags

		Host  string   `strata:"host" comment:"address the listener binds"`
		Port  int      `strata:"port"`
		Tags  []string `strata:"tags"`
		Limits Limits  `strata:"limits"`
	}

Field metadata is built once per type through reflection and memoized in a
process-wide registry; unsupported field types and cyclic schema graphs are
rejected at that point, never during an individual Save or Load.

Save renders a record into a tree, omitting fields whose modified bit is
clear unless asked for everything; Load populates a record from a tree,
setting the bit of every field it finds and resetting absent fields to their
registered defaults. Defaults are captured once, from a deep copy of a
freshly constructed instance, so mutating a live record's collections can
never corrupt them.
*/
package schema
