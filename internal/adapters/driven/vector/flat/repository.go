package flat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Repository implements the interface.
var _ driven.IndexRepository = (*Repository)(nil)

// Repository binds flat indexes to a directory and store ID.
type Repository struct {
	Dir       string
	StoreID   string
	Dimension int
}

// NewRepository creates a repository for indexes of the given dimension.
func NewRepository(dir, storeID string, dimension int) *Repository {
	return &Repository{Dir: dir, StoreID: storeID, Dimension: dimension}
}

// New returns an empty index.
func (r *Repository) New() driven.SimilarityIndex {
	return New(r.Dimension)
}

// Load reads the persisted index.
func (r *Repository) Load(ctx context.Context) (driven.SimilarityIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := New(r.Dimension)
	ok, err := idx.Load(r.Dir, r.StoreID)
	if err != nil {
		return nil, fmt.Errorf("load index %q: %w", r.StoreID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no index %q in %s", domain.ErrIndexNotReady, r.StoreID, r.Dir)
	}
	return idx, nil
}

// Save persists idx, overwriting any previous files.
func (r *Repository) Save(ctx context.Context, idx driven.SimilarityIndex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx.Dimension() != r.Dimension {
		return fmt.Errorf("%w: index has dimension %d, repository expects %d",
			domain.ErrDimensionMismatch, idx.Dimension(), r.Dimension)
	}
	return idx.Save(r.Dir, r.StoreID)
}

// Exists reports whether both files are present.
func (r *Repository) Exists() bool {
	for _, p := range []string{VectorPath(r.Dir, r.StoreID), DataPath(r.Dir, r.StoreID)} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// Remove deletes both files. Returns false when neither existed.
func (r *Repository) Remove() (bool, error) {
	removed := false
	for _, p := range []string{VectorPath(r.Dir, r.StoreID), DataPath(r.Dir, r.StoreID)} {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, fmt.Errorf("remove %s: %w", p, err)
		}
		//nolint:errcheck // left only by an interrupted save
		os.Remove(p + prevSuffix)
	}
	return removed, nil
}
