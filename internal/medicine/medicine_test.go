package medicine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CRUD(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	para, err := repo.Create(ctx, Medicine{Name: "Paracetamol", Category: "Pain Relief", Price: 5.99, Stock: 100, Dosage: "500mg"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, para.ID)
	assert.False(t, para.CreatedAt.IsZero())

	_, err = repo.Create(ctx, Medicine{Name: "Amoxicillin", Category: "Antibiotics", Price: 12.5, Stock: 40})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amoxicillin", list[0].Name)

	para.Stock = 80
	updated, err := repo.Update(ctx, *para)
	require.NoError(t, err)
	assert.Equal(t, 80, updated.Stock)
	assert.Equal(t, para.CreatedAt, updated.CreatedAt)

	got, err := repo.Get(ctx, para.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Stock)

	require.NoError(t, repo.Delete(ctx, para.ID))
	_, err = repo.Get(ctx, para.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, para.ID), ErrNotFound)

	_, err = repo.Update(ctx, Medicine{ID: uuid.New(), Name: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}
