// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitkaro/server/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for persistence operations. This abstraction
// allows swapping storage backends (SQLite, PostgreSQL, etc.) without
// changing the service layer.
//
// The balance methods are the engine's Ledger Store: a group's balances are
// always replaced wholesale, never incremented in place, and only the ledger
// service writes them in production use.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no
	// such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns (nil, nil) when no such
	// user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group with its member list. ID and
	// CreatedAt are populated by the store if unset.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its member list.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember retrieves all groups a user belongs to.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup replaces a group's name and member list.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group and, by cascade, its expenses, shares,
	// settlements, and balances.
	DeleteGroup(ctx context.Context, groupID string) error

	// CreateExpense persists an expense with its shares.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an expense's fields and shares.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense and its shares.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup retrieves a group's full expense history, oldest
	// first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)

	// CreateSettlement appends a settlement record. Settlements are
	// immutable; there is deliberately no update or delete.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup retrieves a group's settlement history, newest
	// first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// GroupBalances retrieves the stored balance snapshot for a group.
	// A group with no ledger entries yields an empty map.
	GroupBalances(ctx context.Context, groupID string) (map[string]int64, error)

	// ReplaceGroupBalances atomically replaces a group's balance snapshot.
	ReplaceGroupBalances(ctx context.Context, groupID string, balances map[string]int64) error

	// Close releases any resources held by the store.
	Close() error
}
