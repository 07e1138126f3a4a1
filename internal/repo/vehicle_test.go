package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/repo"
)

func TestVehicleRepo_CreateAndGet(t *testing.T) {
	r := repo.NewVehicleRepo(newTestTx(t))
	ctx := context.Background()

	in := vehicleFixture()
	in.AuditProtected = true
	created, err := r.Create(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "B-MW 1234", got.LicensePlate)
	assert.True(t, got.AuditProtected)
}

func TestVehicleRepo_SecondPrimary_Duplicate(t *testing.T) {
	r := repo.NewVehicleRepo(newTestTx(t))
	ctx := context.Background()

	a := vehicleFixture()
	a.IsPrimary = true
	_, err := r.Create(ctx, a)
	require.NoError(t, err)

	_, err = r.Create(ctx, a)

	assert.ErrorIs(t, err, domain.ErrDuplicate, "the partial unique index allows one primary")
}

func TestVehicleRepo_ClearAndSetPrimary(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewVehicleRepo(tx)
	ctx := context.Background()

	a := vehicleFixture()
	a.IsPrimary = true
	first, err := r.Create(ctx, a)
	require.NoError(t, err)
	second, err := r.Create(ctx, vehicleFixture())
	require.NoError(t, err)

	require.NoError(t, r.LockRegistry(ctx))
	n, err := r.ClearPrimary(ctx, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := r.SetPrimary(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPrimary)

	primary, err := r.Primary(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)

	old, err := r.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsPrimary)
}

func TestVehicleRepo_SetPrimary_NotFound(t *testing.T) {
	r := repo.NewVehicleRepo(newTestTx(t))

	_, err := r.SetPrimary(context.Background(), 987654)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVehicleRepo_Update(t *testing.T) {
	r := repo.NewVehicleRepo(newTestTx(t))
	ctx := context.Background()

	created, err := r.Create(ctx, vehicleFixture())
	require.NoError(t, err)

	created.FuelType = "Benzin"
	got, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, "Benzin", got.FuelType)
}

func TestVehicleRepo_Delete_NotFound(t *testing.T) {
	r := repo.NewVehicleRepo(newTestTx(t))

	assert.ErrorIs(t, r.Delete(context.Background(), 987654), domain.ErrNotFound)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	tx := newTestTx(t)
	tm := repo.NewTxManager(tx)
	r := repo.NewVehicleRepo(tx)
	ctx := context.Background()

	var createdID int64
	boom := errors.New("abort")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		v, err := r.Create(ctx, vehicleFixture())
		require.NoError(t, err)
		createdID = v.ID
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = r.GetByID(ctx, createdID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTxManager_Commits(t *testing.T) {
	tx := newTestTx(t)
	tm := repo.NewTxManager(tx)
	r := repo.NewVehicleRepo(tx)
	ctx := context.Background()

	var createdID int64
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		v, err := r.Create(ctx, vehicleFixture())
		createdID = v.ID
		return err
	})

	require.NoError(t, err)
	_, err = r.GetByID(ctx, createdID)
	assert.NoError(t, err)
}
