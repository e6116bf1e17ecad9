// Package shell contains the imperative parts around the pure reservation domain:
// mapping between domain events and storable events, event metadata, the generic command handler
// with its per-aggregate serialization and retry policy, and the observability helpers used by it.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'application' layer.
package shell
