// Package core defines the shared language of the LeapCollect system.
//
// This package contains:
//   - Physical schema descriptions (ColumnSpec, IndexSpec, TableSpec)
//   - Introspection results (Column, TableMetadata)
//   - Relationship metadata shared by collections, storage and the engine
//   - The error taxonomy and event names
//   - Identifier configuration for SQL dialects
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
