// Package models defines the core domain records of the trip ledger.
//
// # Models
//
//   - Expense: a payment one participant made on behalf of a group subset,
//     or an Adjustment correcting an earlier one
//   - Split: one participant's exact share of an expense's amount
//   - Settlement: a batch of eligible expenses bundled for reconciliation
//   - Trip / Participant: the read model of the external trip service,
//     synced in so permission checks never leave the process
//
// # Design principles
//
//  1. Amounts are exact integer cents (money.Money); no floating point.
//  2. Statuses are closed enumerations; normalization happens once at the
//     API boundary, internal logic never branches on representation shape.
//  3. Records reference each other by ID string, never by pointer, to avoid
//     circular ownership.
//  4. Expenses are never hard-deleted, only voided; splits stay behind for
//     audit.
package models
