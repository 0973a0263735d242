package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ugobe007/hotmatch/internal/matcherrors"
	"github.com/ugobe007/hotmatch/internal/models"
	"github.com/ugobe007/hotmatch/pkg/database"
)

const testSchema = `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE startups (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		sectors TEXT[],
		stage TEXT,
		raise_amount BIGINT,
		embedding vector(3),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE investors (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		thesis TEXT,
		sectors TEXT[],
		stages TEXT[],
		check_size_min BIGINT,
		check_size_max BIGINT,
		notable_investments JSONB,
		embedding vector(3),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE matches (
		id UUID PRIMARY KEY,
		startup_id UUID NOT NULL REFERENCES startups(id),
		investor_id UUID NOT NULL REFERENCES investors(id),
		score INT NOT NULL,
		confidence TEXT NOT NULL,
		status TEXT NOT NULL,
		fit_analysis JSONB,
		policy_version TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (startup_id, investor_id)
	);

	CREATE TABLE match_runs (
		id UUID PRIMARY KEY,
		policy_version TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		stats JSONB NOT NULL
	);

	CREATE TABLE calibration_runs (
		id UUID PRIMARY KEY,
		policy_version TEXT NOT NULL,
		rows_changed INT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL
	);
`

// setupTestPool starts a throwaway pgvector-enabled Postgres container and
// returns a pool connected to it with the schema applied.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed repository tests in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"pgvector/pgvector:pg16",
		tcpostgres.WithDatabase("hotmatch_test"),
		tcpostgres.WithUsername("hotmatch"),
		tcpostgres.WithPassword("hotmatch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("could not start postgres container (is Docker available?): %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPostgresPool(ctx, connString,
		database.WithAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
			return pgxvec.RegisterTypes(ctx, conn)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err)

	return pool
}

func insertStartup(t *testing.T, pool *pgxpool.Pool, s *models.Startup) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO startups (id, name, description, sectors, stage, raise_amount)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Name, s.Description, s.Sectors, s.Stage, s.RaiseAmount,
	)
	require.NoError(t, err)
}

func insertInvestor(t *testing.T, pool *pgxpool.Pool, inv *models.Investor) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO investors (id, name, thesis, sectors, stages, check_size_min, check_size_max, notable_investments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inv.ID, inv.Name, inv.Thesis, inv.Sectors, inv.Stages,
		inv.CheckSizeMin, inv.CheckSizeMax, inv.NotableInvestments,
	)
	require.NoError(t, err)
}

func TestStartupsRepository_Integration(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewStartupsRepository(pool)
	ctx := context.Background()

	s := &models.Startup{
		ID:          uuid.New(),
		Name:        "Acme Robotics",
		Description: "Warehouse automation",
		Sectors:     []string{"robotics"},
		Stage:       "seed",
		RaiseAmount: 2_000_000,
	}
	insertStartup(t, pool, s)

	t.Run("GetByID returns the row with a NULL embedding", func(t *testing.T) {
		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)

		assert.Equal(t, s.Name, got.Name)
		assert.Equal(t, s.Sectors, got.Sectors)
		assert.Equal(t, s.RaiseAmount, got.RaiseAmount)
		assert.False(t, got.HasEmbedding())
	})

	t.Run("GetByID not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, matcherrors.ErrNotFound)
	})

	t.Run("SetEmbedding round trip", func(t *testing.T) {
		require.NoError(t, repo.SetEmbedding(ctx, s.ID, []float32{1, 0, 0}))

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0}, got.Embedding)
	})

	t.Run("SetEmbedding missing row", func(t *testing.T) {
		err := repo.SetEmbedding(ctx, uuid.New(), []float32{1, 0, 0})
		assert.ErrorIs(t, err, matcherrors.ErrNotFound)
	})

	t.Run("ListAfter pages in id order", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			insertStartup(t, pool, &models.Startup{ID: uuid.New(), Name: "Paged"})
		}

		var seen []uuid.UUID
		afterID := uuid.Nil
		for {
			page, err := repo.ListAfter(ctx, afterID, 2)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}

			assert.LessOrEqual(t, len(page), 2)
			for _, row := range page {
				seen = append(seen, row.ID)
			}
			afterID = page[len(page)-1].ID
		}

		assert.Len(t, seen, 4) // the original startup plus three paged rows
		for i := 1; i < len(seen); i++ {
			assert.True(t, seen[i-1].String() < seen[i].String(), "pages must be id-ordered")
		}
	})

	t.Run("ListIDsMissingEmbedding excludes embedded rows", func(t *testing.T) {
		ids, err := repo.ListIDsMissingEmbedding(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, s.ID)
		assert.Len(t, ids, 3)
	})
}

func TestInvestorsRepository_Integration(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewInvestorsRepository(pool)
	ctx := context.Background()

	near := &models.Investor{
		ID: uuid.New(), Name: "Near Fund", Sectors: []string{"ai"},
		NotableInvestments: json.RawMessage(`["Stripe"]`),
	}
	far := &models.Investor{ID: uuid.New(), Name: "Far Fund", Sectors: []string{"crypto"}}
	unembedded := &models.Investor{ID: uuid.New(), Name: "No Vector Fund", Sectors: []string{"ai"}}
	insertInvestor(t, pool, near)
	insertInvestor(t, pool, far)
	insertInvestor(t, pool, unembedded)

	require.NoError(t, repo.SetEmbedding(ctx, near.ID, []float32{1, 0, 0}))
	require.NoError(t, repo.SetEmbedding(ctx, far.ID, []float32{0, 1, 0}))

	t.Run("NearestByEmbedding orders by similarity and applies the floor", func(t *testing.T) {
		results, err := repo.NearestByEmbedding(ctx, []float32{1, 0, 0}, 10, 0.5)
		require.NoError(t, err)

		// Only the identical vector clears similarity 0.5; the orthogonal
		// one has similarity 0 and the unembedded row is never returned.
		require.Len(t, results, 1)
		assert.Equal(t, near.ID, results[0].Investor.ID)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
		assert.JSONEq(t, `["Stripe"]`, string(results[0].Investor.NotableInvestments))
	})

	t.Run("NearestByEmbedding without floor returns both embedded rows", func(t *testing.T) {
		results, err := repo.NearestByEmbedding(ctx, []float32{1, 0, 0}, 10, 0)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, near.ID, results[0].Investor.ID)
		assert.Equal(t, far.ID, results[1].Investor.ID)
	})

	t.Run("ListBySectorOverlap matches on array overlap", func(t *testing.T) {
		investors, err := repo.ListBySectorOverlap(ctx, []string{"ai", "saas"}, 10)
		require.NoError(t, err)

		require.Len(t, investors, 2)
		names := []string{investors[0].Name, investors[1].Name}
		assert.Contains(t, names, "Near Fund")
		assert.Contains(t, names, "No Vector Fund")
	})

	t.Run("ListIDsMissingEmbedding", func(t *testing.T) {
		ids, err := repo.ListIDsMissingEmbedding(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{unembedded.ID}, ids)
	})
}

func TestMatchesRepository_Integration(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewMatchesRepository(pool)
	ctx := context.Background()

	startup := &models.Startup{ID: uuid.New(), Name: "Acme"}
	invA := &models.Investor{ID: uuid.New(), Name: "Fund A"}
	invB := &models.Investor{ID: uuid.New(), Name: "Fund B"}
	insertStartup(t, pool, startup)
	insertInvestor(t, pool, invA)
	insertInvestor(t, pool, invB)

	newMatch := func(investorID uuid.UUID, score int) *models.Match {
		return &models.Match{
			StartupID:     startup.ID,
			InvestorID:    investorID,
			Score:         score,
			Confidence:    models.ConfidenceMedium,
			Status:        models.MatchStatusSuggested,
			FitAnalysis:   models.FitAnalysis{Baseline: 15, Raw: score, Final: score},
			PolicyVersion: "v5",
		}
	}

	t.Run("BulkUpsert inserts and rescoring preserves created_at", func(t *testing.T) {
		require.NoError(t, repo.BulkUpsert(ctx, []*models.Match{
			newMatch(invA.ID, 48),
			newMatch(invB.ID, 62),
		}))

		first, err := repo.ListByStartup(ctx, startup.ID)
		require.NoError(t, err)
		require.Len(t, first, 2)

		// Ordered by score descending.
		assert.Equal(t, 62, first[0].Score)
		assert.Equal(t, invB.ID, first[0].InvestorID)
		assert.Equal(t, 48, first[1].FitAnalysis.Final)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, repo.BulkUpsert(ctx, []*models.Match{newMatch(invB.ID, 55)}))

		second, err := repo.ListByStartup(ctx, startup.ID)
		require.NoError(t, err)
		require.Len(t, second, 2, "conflict must update, not duplicate")

		assert.Equal(t, 55, second[0].Score)
		assert.Equal(t, first[0].CreatedAt.UTC(), second[0].CreatedAt.UTC())
		assert.True(t, second[0].UpdatedAt.After(second[0].CreatedAt))
	})

	t.Run("PruneForStartup deletes rows outside the keep set", func(t *testing.T) {
		require.NoError(t, repo.PruneForStartup(ctx, startup.ID, []uuid.UUID{invA.ID}))

		remaining, err := repo.ListByStartup(ctx, startup.ID)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, invA.ID, remaining[0].InvestorID)
	})

	t.Run("ScoreBandCounts and CountTotal", func(t *testing.T) {
		require.NoError(t, repo.BulkUpsert(ctx, []*models.Match{newMatch(invB.ID, 82)}))

		counts, err := repo.ScoreBandCounts(ctx, [][2]int{{36, 50}, {51, 65}, {81, 99}})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 0, 1}, counts)

		total, err := repo.CountTotal(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("legacy listing and score rewrite", func(t *testing.T) {
		legacyMatch := newMatch(invB.ID, 88)
		legacyMatch.PolicyVersion = "v4"
		require.NoError(t, repo.BulkUpsert(ctx, []*models.Match{legacyMatch}))

		legacy, err := repo.ListLegacyHighScores(ctx, "v5", 60)
		require.NoError(t, err)
		require.Len(t, legacy, 1)
		assert.Equal(t, 88, legacy[0].Score)

		require.NoError(t, repo.UpdateScore(ctx, legacy[0].ID, 74, models.ConfidenceHigh, "v5"))

		legacy, err = repo.ListLegacyHighScores(ctx, "v5", 60)
		require.NoError(t, err)
		assert.Empty(t, legacy)
	})

	t.Run("legacy listing includes rows with NULL policy version", func(t *testing.T) {
		// Rows written before policy versioning existed carry NULL here.
		nullPolicyID := uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO matches (id, startup_id, investor_id, score, confidence, status, policy_version, created_at, updated_at)
			VALUES ($1, $2, $3, 91, 'high', 'suggested', NULL, now(), now())
			ON CONFLICT (startup_id, investor_id) DO UPDATE SET score = 91, policy_version = NULL`,
			nullPolicyID, startup.ID, invA.ID,
		)
		require.NoError(t, err)

		legacy, err := repo.ListLegacyHighScores(ctx, "v5", 60)
		require.NoError(t, err)
		require.Len(t, legacy, 1)
		assert.Equal(t, 91, legacy[0].Score)

		require.NoError(t, repo.UpdateScore(ctx, legacy[0].ID, 76, models.ConfidenceHigh, "v5"))

		legacy, err = repo.ListLegacyHighScores(ctx, "v5", 60)
		require.NoError(t, err)
		assert.Empty(t, legacy)
	})

	t.Run("UpdateScore missing row", func(t *testing.T) {
		err := repo.UpdateScore(ctx, uuid.New(), 50, models.ConfidenceMedium, "v5")
		assert.ErrorIs(t, err, matcherrors.ErrNotFound)
	})
}

func TestRunsRepository_Integration(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewRunsRepository(pool)
	ctx := context.Background()

	t.Run("match run lifecycle", func(t *testing.T) {
		runID, err := repo.StartMatchRun(ctx, "v5")
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, runID)

		stats := models.RunStats{StartupsProcessed: 10, PairsScored: 42, Persisted: 30}
		require.NoError(t, repo.FinishMatchRun(ctx, runID, stats))

		var finished *time.Time
		var payload []byte
		err = pool.QueryRow(ctx,
			`SELECT finished_at, stats FROM match_runs WHERE id = $1`, runID,
		).Scan(&finished, &payload)
		require.NoError(t, err)
		require.NotNil(t, finished)

		var got models.RunStats
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, stats, got)
	})

	t.Run("calibration guard", func(t *testing.T) {
		applied, err := repo.CalibrationApplied(ctx, "v5")
		require.NoError(t, err)
		assert.False(t, applied)

		require.NoError(t, repo.RecordCalibration(ctx, "v5", 17))

		applied, err = repo.CalibrationApplied(ctx, "v5")
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = repo.CalibrationApplied(ctx, "v6")
		require.NoError(t, err)
		assert.False(t, applied)
	})
}
