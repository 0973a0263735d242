package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugobe007/hotmatch/internal/models"
)

type mockStartupBackfillSource struct {
	ids        []uuid.UUID
	getByIDErr error
}

func (m *mockStartupBackfillSource) ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error) {
	return m.ids, nil
}

func (m *mockStartupBackfillSource) GetByID(ctx context.Context, id uuid.UUID) (*models.Startup, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}

	return &models.Startup{ID: id, Name: "Acme", Description: "Robots"}, nil
}

type mockInvestorBackfillSource struct {
	ids []uuid.UUID
}

func (m *mockInvestorBackfillSource) ListIDsMissingEmbedding(ctx context.Context) ([]uuid.UUID, error) {
	return m.ids, nil
}

func (m *mockInvestorBackfillSource) GetByID(ctx context.Context, id uuid.UUID) (*models.Investor, error) {
	return &models.Investor{ID: id, Name: "Fund", Thesis: "Early stage"}, nil
}

type mockJobInserter struct {
	insertFunc func(ctx context.Context, args EmbeddingJobArgs) error
	inserted   []EmbeddingJobArgs
}

func (m *mockJobInserter) InsertEmbeddingJob(ctx context.Context, args EmbeddingJobArgs) error {
	if m.insertFunc != nil {
		if err := m.insertFunc(ctx, args); err != nil {
			return err
		}
	}
	m.inserted = append(m.inserted, args)

	return nil
}

func TestBackfill(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueues jobs for both entity types", func(t *testing.T) {
		startups := &mockStartupBackfillSource{ids: []uuid.UUID{uuid.New(), uuid.New()}}
		investors := &mockInvestorBackfillSource{ids: []uuid.UUID{uuid.New()}}
		inserter := &mockJobInserter{}

		stats, err := Backfill(ctx, startups, investors, inserter)
		require.NoError(t, err)

		assert.Equal(t, 2, stats.StartupsEnqueued)
		assert.Equal(t, 1, stats.InvestorsEnqueued)
		assert.Zero(t, stats.Errors)
		require.Len(t, inserter.inserted, 3)

		assert.Equal(t, EntityTypeStartup, inserter.inserted[0].EntityType)
		assert.Equal(t, "Acme. Robots", inserter.inserted[0].Text)
		assert.Equal(t, EntityTypeInvestor, inserter.inserted[2].EntityType)
	})

	t.Run("load failures are counted not fatal", func(t *testing.T) {
		startups := &mockStartupBackfillSource{
			ids:        []uuid.UUID{uuid.New(), uuid.New()},
			getByIDErr: errors.New("row gone"),
		}
		investors := &mockInvestorBackfillSource{ids: []uuid.UUID{uuid.New()}}
		inserter := &mockJobInserter{}

		stats, err := Backfill(ctx, startups, investors, inserter)
		require.NoError(t, err)

		assert.Zero(t, stats.StartupsEnqueued)
		assert.Equal(t, 2, stats.Errors)
		assert.Equal(t, 1, stats.InvestorsEnqueued)
	})

	t.Run("insert failures are counted not fatal", func(t *testing.T) {
		startups := &mockStartupBackfillSource{ids: []uuid.UUID{uuid.New()}}
		investors := &mockInvestorBackfillSource{ids: []uuid.UUID{uuid.New()}}
		inserter := &mockJobInserter{
			insertFunc: func(ctx context.Context, args EmbeddingJobArgs) error {
				if args.EntityType == EntityTypeStartup {
					return errors.New("queue full")
				}

				return nil
			},
		}

		stats, err := Backfill(ctx, startups, investors, inserter)
		require.NoError(t, err)

		assert.Zero(t, stats.StartupsEnqueued)
		assert.Equal(t, 1, stats.InvestorsEnqueued)
		assert.Equal(t, 1, stats.Errors)
	})

	t.Run("nothing to backfill", func(t *testing.T) {
		stats, err := Backfill(ctx, &mockStartupBackfillSource{}, &mockInvestorBackfillSource{}, &mockJobInserter{})
		require.NoError(t, err)

		assert.Zero(t, stats.StartupsEnqueued)
		assert.Zero(t, stats.InvestorsEnqueued)
	})
}
