// Package hits owns the per-event hit data model.
//
// Responsibilities: the Record type (one per sensor reading), the symmetric
// relation graph between records, mark-then-compact removal and
// graph-consistent reordering of the working set, and the error kinds every
// selection stage reports.
// Key types: Hit, Record, Set, Graph, StageError.
//
// Records are addressed by position in Set.Records. The graph is indexed by
// the same positions and is remapped whenever the set is compacted or
// sorted, so no record ever holds a reference to another.
//
// Dependency rule: hits depends on nothing inside this module.
package hits
