/*
Package strata parses and writes the strata document format: a
self-describing, human-editable hierarchical text format driven by
indentation.

A document is a tree of sections. Each line binds a key to a scalar, a
base64 binary blob, a nested section, or an ordered list, and comment lines
attach to the node below them and survive a save:

	# connection settings
	server:
	    host: 10.0.0.1
	    port: 8080
	tags:
	- primary
	- eu-west
	key= SGVsbG8=

Parse produces a *Section, the mutable in-memory tree. Values are read with
typed accessors that take a dotted path and a default:

	doc, err := strata.Parse(src)
	if err != nil {
	    // handle error
	}
	host := doc.GetString("server.host", "localhost")
	port := doc.GetInt("server.port", 80)

Marshal writes a tree back out, preserving key order, list order and
comments. WriteFile and ReadFile wrap this in a crash-safe replace protocol
that keeps a backup of the previous content until the new file is fully in
place, and Watch reloads a document whenever such a replace completes.

The schema subpackage binds plain Go structs onto the same trees with
per-field modification tracking.
*/
package strata
