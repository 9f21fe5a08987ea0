package account

import "context"

// StoreAPI is the account quota store. Writes are visible to reads on the
// same store instance as soon as the call returns.
type StoreAPI interface {
	// Insert fails with ErrDuplicateEmployeeID when the key is taken.
	Insert(ctx context.Context, acct Account) error

	// Get fails with ErrNotFound for unknown employee ids.
	Get(ctx context.Context, employeeID string) (Account, error)

	// List returns every account ordered by employee id.
	List(ctx context.Context) ([]Account, error)

	// Update replaces the stored row. It fails with ErrNotFound when the
	// employee id is unknown.
	Update(ctx context.Context, acct Account) error

	// Delete fails with ErrNotFound when the employee id is unknown.
	Delete(ctx context.Context, employeeID string) error
}
