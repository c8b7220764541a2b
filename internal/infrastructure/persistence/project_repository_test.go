package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/project"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepository_SaveAndUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	p, err := project.NewProject(tenantID, uuid.New(), "QGIS", "qgis")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	managerID := uuid.New()
	require.NoError(t, p.SetManagers(project.ManagerRoleCertification, []uuid.UUID{managerID, managerID}))
	require.NoError(t, repo.Save(ctx, p))

	stored, err := repo.FindBySlug(ctx, "qgis")
	require.NoError(t, err)
	assert.True(t, stored.IsManager(project.ManagerRoleCertification, managerID))
	assert.Equal(t, p.Version, stored.Version)

	t.Run("stale save conflicts", func(t *testing.T) {
		stale := *stored
		require.NoError(t, stored.Update("QGIS.org", "", ""))
		require.NoError(t, repo.Save(ctx, stored))

		require.NoError(t, stale.Update("Stale", "", ""))
		assert.ErrorIs(t, repo.Save(ctx, &stale), shared.ErrConcurrencyConflict)
	})

	t.Run("slug helpers", func(t *testing.T) {
		exists, err := repo.SlugExists(ctx, "qgis")
		require.NoError(t, err)
		assert.True(t, exists)

		count, err := repo.CountSlugs(ctx, "qgis")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("listing is tenant scoped", func(t *testing.T) {
		projects, err := repo.FindAll(ctx, tenantID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, projects, 1)

		count, err := repo.Count(ctx, uuid.New(), shared.Filter{})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestStatusRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStatusRepository(db)
	ctx := context.Background()
	tenantID, projectID := uuid.New(), uuid.New()

	max, err := repo.MaxOrder(ctx, tenantID, projectID)
	require.NoError(t, err)
	assert.Zero(t, max)

	for i, name := range []string{"Approved", "Pending review"} {
		s, err := project.NewStatus(tenantID, projectID, name, i+1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, s))
	}

	max, err = repo.MaxOrder(ctx, tenantID, projectID)
	require.NoError(t, err)
	assert.Equal(t, 2, max)

	exists, err := repo.ExistsByName(ctx, tenantID, projectID, "approved")
	require.NoError(t, err)
	assert.True(t, exists)

	statuses, err := repo.FindByProject(ctx, tenantID, projectID)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "Approved", statuses[0].Name)

	require.NoError(t, repo.Delete(ctx, tenantID, statuses[0].ID))
	assert.ErrorIs(t, repo.Delete(ctx, tenantID, statuses[0].ID), shared.ErrNotFound)
}
