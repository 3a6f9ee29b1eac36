// Package harvest provides a declarative extraction engine. A Definition
// names an ordered set of fields, each bound to a query expression and a
// value kind, and a Schema applies that definition to one parsed document
// to produce a flat Record.
//
// This package contains domain types, interfaces and the extraction model
// following Ben Johnson's Standard Package Layout. Document implementations
// live in subdirectories named after their primary dependency (e.g.,
// goquery/, htmlquery/, etree/).
package harvest
