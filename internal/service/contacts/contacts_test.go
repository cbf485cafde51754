package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/contactkeeper/contacts_api/internal/models"
	"github.com/contactkeeper/contacts_api/internal/repo"
)

func newTestService(t *testing.T) (*Service, *models.User) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Contact{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	r := repo.New(db)
	owner := &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
		Confirmed:    true,
	}
	require.NoError(t, r.CreateUser(context.Background(), owner))

	// no search index in unit tests: the DB paths must work without one
	return New(r, nil), owner
}

func sample(name string) *models.Contact {
	return &models.Contact{
		Name:     name,
		LastName: "Tester",
		Email:    name + "@x.com",
		Phone:    "555-" + name,
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sample("anna"))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, owner.ID, created.UserID)

	got, err := svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Name)

	_, err = svc.Get(ctx, owner, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sample("anna"))
	require.NoError(t, err)

	fields := sample("anna")
	fields.LastName = "Renamed"
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	fields.BirthDate = &birth

	updated, err := svc.Update(ctx, owner, created.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.LastName)
	require.NotNil(t, updated.BirthDate)
	assert.Equal(t, time.June, updated.BirthDate.Month())

	_, err = svc.Update(ctx, owner, 9999, fields)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, sample("anna"))
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.Delete(ctx, owner, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForwardsFilter(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, sample("Anna"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, sample("Annette"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, sample("Boris"))
	require.NoError(t, err)

	// a lower-case filter still matches the capitalized names
	got, err := svc.List(ctx, owner, repo.ContactFilter{Name: "ann"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpcomingDefaultsWindow(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	soon := time.Now().AddDate(-30, 0, 2)
	c := sample("anna")
	c.BirthDate = &soon
	_, err := svc.Create(ctx, owner, c)
	require.NoError(t, err)

	got, err := svc.Upcoming(ctx, owner, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearchWithoutIndex(t *testing.T) {
	svc, owner := newTestService(t)

	_, _, err := svc.Search(context.Background(), owner, "anna", 0, 10)
	require.Error(t, err)
}
