package repo_test

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/repo"
	"github.com/tubequest/checkin/testutil"
)

// visitTestEnv bundles the repos and fixture rows most visit tests need.
// Everything lives inside one transaction that is rolled back when the test
// finishes, so tests never leave rows behind.
type visitTestEnv struct {
	tx       pgx.Tx
	visits   repo.VisitRepo
	activity domain.Activity
	station  domain.Station
	userID   uuid.UUID
}

func newVisitTestEnv(t *testing.T) visitTestEnv {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	ctx := context.Background()
	activity, err := repo.NewActivityRepo(tx).Create(ctx, domain.Activity{
		Name:   "Zone 1 sprint",
		UserID: uuid.New(),
	})
	require.NoError(t, err, "create activity fixture")

	station, err := repo.NewStationRepo(tx).Seed(ctx, stationFixture("Victoria", "1"))
	require.NoError(t, err, "seed station fixture")

	return visitTestEnv{
		tx:       tx,
		visits:   repo.NewVisitRepo(tx),
		activity: activity,
		station:  station,
		userID:   uuid.New(),
	}
}

func stationFixture(name, zone string) domain.Station {
	return domain.Station{
		Name:  name,
		Lines: []string{"Victoria"},
		Zone:  zone,
		Lat:   51.4965,
		Lng:   -0.1447,
	}
}

// visitFixture returns a verified GPS visit for the given triple.
// Callers override fields as needed.
func visitFixture(activityID, stationID, userID uuid.UUID) domain.Visit {
	lat, lng := 51.4965, -0.1447
	return domain.Visit{
		ActivityID:         activityID,
		StationID:          stationID,
		UserID:             userID,
		Status:             domain.StatusVerified,
		VerificationMethod: domain.MethodGPS,
		Lat:                &lat,
		Lng:                &lng,
		GPSSource:          domain.SourceDevice,
		VerifierVersion:    "test",
	}
}

func TestVisitRepo_CreateWithSequence_AssignsDenseSequence(t *testing.T) {
	env := newVisitTestEnv(t)
	ctx := context.Background()

	second, err := repo.NewStationRepo(env.tx).Seed(ctx, stationFixture("Euston", "1"))
	require.NoError(t, err)
	third, err := repo.NewStationRepo(env.tx).Seed(ctx, stationFixture("Oxford Circus", "1"))
	require.NoError(t, err)

	for i, stationID := range []uuid.UUID{env.station.ID, second.ID, third.ID} {
		got, err := env.visits.CreateWithSequence(ctx, visitFixture(env.activity.ID, stationID, env.userID))
		require.NoError(t, err)
		assert.Equal(t, i+1, got.SeqActual)
		assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated")
		assert.False(t, got.VisitedAt.IsZero(), "VisitedAt should be DB-assigned")
	}
}

func TestVisitRepo_CreateWithSequence_SequencesArePerActivity(t *testing.T) {
	env := newVisitTestEnv(t)
	ctx := context.Background()

	_, err := env.visits.CreateWithSequence(ctx, visitFixture(env.activity.ID, env.station.ID, env.userID))
	require.NoError(t, err)

	other, err := repo.NewActivityRepo(env.tx).Create(ctx, domain.Activity{
		Name:   "Night tour",
		UserID: uuid.New(),
	})
	require.NoError(t, err)

	got, err := env.visits.CreateWithSequence(ctx, visitFixture(other.ID, env.station.ID, env.userID))
	require.NoError(t, err)
	assert.Equal(t, 1, got.SeqActual, "each activity counts from 1")
}

func TestVisitRepo_CreateWithSequence_PersistsEvidence(t *testing.T) {
	env := newVisitTestEnv(t)
	ctx := context.Background()

	reason := domain.ReasonLowConfidence
	distance := 412.3
	confidence := 0.42
	input := visitFixture(env.activity.ID, env.station.ID, env.userID)
	input.Status = domain.StatusPending
	input.PendingReason = &reason
	input.VerificationMethod = domain.MethodAIImage
	input.GPSSource = domain.SourceImage
	input.GeofenceDistance = &distance
	input.OCRText = "VICTORIA"
	input.OCRConfidence = &confidence
	input.Simulation = false

	got, err := env.visits.CreateWithSequence(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	require.NotNil(t, got.PendingReason)
	assert.Equal(t, domain.ReasonLowConfidence, *got.PendingReason)
	assert.Equal(t, domain.MethodAIImage, got.VerificationMethod)
	assert.Equal(t, domain.SourceImage, got.GPSSource)
	require.NotNil(t, got.GeofenceDistance)
	assert.Equal(t, 412.3, *got.GeofenceDistance)
	assert.Equal(t, "VICTORIA", got.OCRText)
	require.NotNil(t, got.OCRConfidence)
	assert.Equal(t, 0.42, *got.OCRConfidence)
}

// A second insert for the same (activity, station, user) triple must surface
// as *domain.DuplicateVisitError carrying the winning row's details, exactly
// like the service-level pre-check would have reported.
func TestVisitRepo_CreateWithSequence_DuplicateTriple(t *testing.T) {
	env := newVisitTestEnv(t)
	ctx := context.Background()

	first, err := env.visits.CreateWithSequence(ctx, visitFixture(env.activity.ID, env.station.ID, env.userID))
	require.NoError(t, err)

	_, err = env.visits.CreateWithSequence(ctx, visitFixture(env.activity.ID, env.station.ID, env.userID))

	var dup *domain.DuplicateVisitError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingVisitID)
	assert.Equal(t, "Victoria", dup.StationName)
	assert.False(t, dup.VisitedAt.IsZero())
}

func TestVisitRepo_FindByTriple(t *testing.T) {
	env := newVisitTestEnv(t)
	ctx := context.Background()

	created, err := env.visits.CreateWithSequence(ctx, visitFixture(env.activity.ID, env.station.ID, env.userID))
	require.NoError(t, err)

	got, stationName, err := env.visits.FindByTriple(ctx, env.activity.ID, env.station.ID, env.userID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.SeqActual, got.SeqActual)
	assert.Equal(t, "Victoria", stationName)
}

func TestVisitRepo_FindByTriple_NotFound(t *testing.T) {
	env := newVisitTestEnv(t)

	_, _, err := env.visits.FindByTriple(context.Background(), env.activity.ID, env.station.ID, uuid.New())

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVisitRepo_ListByActivity_OrderedBySequence(t *testing.T) {
	env := newVisitTestEnv(t)
	ctx := context.Background()

	second, err := repo.NewStationRepo(env.tx).Seed(ctx, stationFixture("Euston", "1"))
	require.NoError(t, err)

	_, err = env.visits.CreateWithSequence(ctx, visitFixture(env.activity.ID, env.station.ID, env.userID))
	require.NoError(t, err)
	_, err = env.visits.CreateWithSequence(ctx, visitFixture(env.activity.ID, second.ID, env.userID))
	require.NoError(t, err)

	got, err := env.visits.ListByActivity(ctx, env.activity.ID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].SeqActual)
	assert.Equal(t, 2, got[1].SeqActual)
}

func TestVisitRepo_ListByActivity_Empty(t *testing.T) {
	env := newVisitTestEnv(t)

	got, err := env.visits.ListByActivity(context.Background(), env.activity.ID)

	require.NoError(t, err)
	assert.Empty(t, got)
}

// Concurrent check-ins for one activity must come out with the dense gapless
// sequence {1..N}: the advisory lock serializes the read-max-then-insert step
// across connections. This test commits real rows through the pool (advisory
// transaction locks only exclude each other across connections), so it cleans
// up after itself instead of relying on rollback.
func TestVisitRepo_CreateWithSequence_Concurrent(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()

	for _, n := range []int{1, 4, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			activity, err := repo.NewActivityRepo(pool).Create(ctx, domain.Activity{
				Name:   "Concurrency run",
				UserID: uuid.New(),
			})
			require.NoError(t, err)

			stationRepo := repo.NewStationRepo(pool)
			stations := make([]domain.Station, n)
			for i := range stations {
				stations[i], err = stationRepo.Seed(ctx, stationFixture(fmt.Sprintf("Station %d", i), "1"))
				require.NoError(t, err)
			}

			t.Cleanup(func() {
				_, _ = pool.Exec(ctx, `DELETE FROM visits WHERE activity_id = $1`, activity.ID)
				for _, s := range stations {
					_, _ = pool.Exec(ctx, `DELETE FROM stations WHERE id = $1`, s.ID)
				}
				_, _ = pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, activity.ID)
			})

			visits := repo.NewVisitRepo(pool)
			userID := uuid.New()

			results := make([]int, n)
			var g errgroup.Group
			for i := 0; i < n; i++ {
				i := i
				g.Go(func() error {
					v, err := visits.CreateWithSequence(ctx, visitFixture(activity.ID, stations[i].ID, userID))
					if err != nil {
						return err
					}
					results[i] = v.SeqActual
					return nil
				})
			}
			require.NoError(t, g.Wait())

			sort.Ints(results)
			for i, seq := range results {
				assert.Equal(t, i+1, seq, "sequence must be dense and gapless")
			}
		})
	}
}
