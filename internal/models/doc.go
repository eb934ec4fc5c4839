// Package models defines the core domain models for the shared-expense ledger.
//
// # Stored Models
//
// The following models are persisted by the storage layer:
//   - User: a person who can pay for and share expenses
//   - Group: a set of users sharing an independent ledger
//   - Expense: an amount paid by one member and divided by a split policy
//   - ExpenseSplit: one participant's owed share of an expense
//
// # Derived Values
//
// Balances, settlement transfers and statistics are never stored. They are
// recomputed from Expense and ExpenseSplit records by the calculator package.
//
// # Design Principles
//
//  1. **Integer money**: every amount is money.Cents, never a float
//  2. **Stable identities**: users, groups and expenses have permanent numeric ids
//  3. **No pointers between models**: relationships are expressed through ids
//  4. **Splits are a unit**: an expense and its splits are written and replaced together
package models
