package uow

import (
	"context"

	"github.com/yaovia/rides-go/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work. Side effects registered through after
// (cache invalidation, notifications) run only once the transaction has
// committed; a rolled-back unit leaves no trace anywhere.
type UoW struct {
	store repository.Store
}

func New(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside a transaction against a transaction-scoped Repos.
// After a successful commit it executes all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, r repository.Repos, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.store.RunTx(ctx, func(ctx context.Context, r repository.Repos) error {
		// the store may re-run a rolled-back attempt; only hooks from
		// the attempt that commits may fire
		hooks = hooks[:0]
		return fn(ctx, r, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
