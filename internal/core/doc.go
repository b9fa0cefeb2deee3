// Package core holds the action-plan domain: records, status derivation,
// spreadsheet reconciliation, exports, accounts and jurisdictions. It knows
// nothing about HTTP or SQL; web handlers and the CLI call Service, and
// Service persists through the Store interface.
//
// # Status
//
// Status is never stored. [DeriveStatus] computes it from the stored
// override text and the plan dates at read time, using the service [Clock].
//
// # Spreadsheets
//
// Import mode ([Service.ImportPlans]) reads a header-aware, semicolon
// delimited file and inserts new plans in batches. Update mode
// ([Service.UpdatePlans]) reads a positional file of exactly
// [PlanUpdateArity] fields per line and upserts by id; one malformed line
// aborts the file before anything is written. The data export
// ([DataExport]) produces files update mode accepts unchanged.
//
// Large imports run in the background through [Service.StartImport],
// bounded by an [UploadLimiter].
//
// # Errors
//
// Stores return [ErrNotFound] for missing records. Technical errors are
// mapped to operator messages with support codes by [MapError]:
//
//   - AUTH001-AUTH003: authentication and authorization
//   - CSV001: update-mode arity mismatch
//   - DB001-DB008: constraints, connectivity, missing records
//   - FILE001-FILE006: upload validation
//   - VAL001-VAL008: field validation
package core
