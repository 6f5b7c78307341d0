// Package fixture owns the canned JSON documents a stub server answers with.
//
// A fixture is a named, ordered sequence of records (JSON objects) parsed
// once from a source blob. Documents are shared by every request in the
// process: a field set through SetField is visible to all later reads, with
// no per-client isolation. Writers are serialized per fixture name.
//
// Field names passed to SetField are plain object keys, or JSONPath
// expressions (starting with "$") evaluated against record 0:
//
//	store.SetField("cars", "email", "42")
//	store.SetField("cars", "$.owner.name", "Ada")
package fixture
