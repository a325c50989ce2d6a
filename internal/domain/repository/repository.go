// Package repository defines the CRUD contract every entity store satisfies.
package repository

import "context"

// Entity is implemented by pointers to stored domain types.
type Entity[T any] interface {
	EntityID() string
	EntityRevision() int64
	SetRevision(r int64)
	Clone() T
}

// Repository stores a single entity type.
//
// FindByID returns the zero value and a nil error when nothing is stored
// under id. Create fails with a Conflict error when the identity is taken.
// Update is a compare-and-swap on the entity revision: it fails with
// NotFound when the identity is absent and with Conflict when the stored
// revision differs from the entity's; the returned value carries the new
// revision. Delete of an absent identity is a no-op.
type Repository[T any] interface {
	FindByID(ctx context.Context, id string) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id string) error
}
