// Package account implements the bounce reconciliation service.
//
// When a Bounce or Complaint notification qualifies for action, the
// recipient addresses are reconciled against the account store: each
// matching account that has not already been flagged gets a fresh
// verification token, forcing the owner to re-confirm the address before
// it receives mail again.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package account
