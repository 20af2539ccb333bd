// Package models defines the core domain models for the Splitkaro backend.
//
// # Models
//
//   - User: registered account, identified by UUID
//   - Group: a set of members who share expenses
//   - Expense: a payment by one member split into per-member shares
//   - Settlement: a recorded payment between two members that clears debt
//   - MemberBalance / Transfer: derived ledger views
//
// # Money
//
// Every amount is an int64 in minor units (paise). Shares of an expense
// always sum exactly to the expense total, so the group-wide invariant —
// member balances summing to zero — is checkable with exact integer
// arithmetic. Decimal strings exist only at the HTTP boundary (pkg/money).
//
// # Design principles
//
//  1. ID strings (UUIDs) instead of pointers for relationships, to avoid
//     circular references.
//  2. Balances are derived state: always reconstructible from the expense
//     and settlement history, never independently authoritative.
//  3. Settlements are append-only; they form the financial audit trail and
//     are never mutated or deleted.
package models
