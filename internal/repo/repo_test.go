package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/contactkeeper/contacts_api/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Contact{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return New(db)
}

func seedUser(t *testing.T, r *GormRepo, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestUserLookups(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "alice")

	byName, err := r.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byName.Email)

	byEmail, err := r.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, byEmail.ID)

	_, err = r.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUser_DuplicateMapsToErrDuplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "alice")

	err := r.CreateUser(ctx, &models.User{
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = r.CreateUser(ctx, &models.User{
		Username:     "alice2",
		Email:        "alice@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSetRefreshToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")

	require.NoError(t, r.SetRefreshToken(ctx, u.ID, "tok-1"))
	got, err := r.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.RefreshToken)

	// second login overwrites, never accumulates
	require.NoError(t, r.SetRefreshToken(ctx, u.ID, "tok-2"))
	got, err = r.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.RefreshToken)

	assert.ErrorIs(t, r.SetRefreshToken(ctx, 9999, "tok"), ErrNotFound)
}

func TestConfirmEmail(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "alice")

	require.NoError(t, r.ConfirmEmail(ctx, "alice@example.com"))
	got, err := r.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, got.Confirmed)

	assert.ErrorIs(t, r.ConfirmEmail(ctx, "nobody@example.com"), ErrNotFound)
}

func TestUpdatePassword_RevokesRefreshToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "alice")
	require.NoError(t, r.SetRefreshToken(ctx, u.ID, "live-refresh"))

	updated, err := r.UpdatePassword(ctx, "alice@example.com", "new-hash")
	require.NoError(t, err)
	assert.Equal(t, u.ID, updated.ID)

	got, err := r.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Empty(t, got.RefreshToken)
}

func TestUpdateAvatar(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, r, "alice")

	got, err := r.UpdateAvatar(ctx, "alice@example.com", "http://files/avatars/alice.png")
	require.NoError(t, err)
	assert.Equal(t, "http://files/avatars/alice.png", got.Avatar)

	_, err = r.UpdateAvatar(ctx, "nobody@example.com", "url")
	assert.ErrorIs(t, err, ErrNotFound)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seedContact(t *testing.T, r *GormRepo, userID uint, name, email, phone string, birth *time.Time) *models.Contact {
	t.Helper()
	c := &models.Contact{
		Name:      name,
		LastName:  "Tester",
		Email:     email,
		Phone:     phone,
		BirthDate: birth,
		UserID:    userID,
	}
	require.NoError(t, r.CreateContact(context.Background(), c))
	return c
}

func TestContacts_FiltersAndPagination(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "alice")
	other := seedUser(t, r, "bob")

	seedContact(t, r, owner.ID, "Anna", "anna@x.com", "111", nil)
	seedContact(t, r, owner.ID, "Annette", "annette@x.com", "222", nil)
	seedContact(t, r, owner.ID, "Boris", "boris@x.com", "333", nil)
	seedContact(t, r, other.ID, "Anna", "anna@x.com", "111", nil)

	all, err := r.Contacts(ctx, owner.ID, ContactFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// filters match regardless of case: "ann" finds "Anna" and "Annette"
	named, err := r.Contacts(ctx, owner.ID, ContactFilter{Name: "ann"})
	require.NoError(t, err)
	assert.Len(t, named, 2)

	byEmail, err := r.Contacts(ctx, owner.ID, ContactFilter{Email: "BORIS"})
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Boris", byEmail[0].Name)

	page, err := r.Contacts(ctx, owner.ID, ContactFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Annette", page[0].Name)
}

func TestContactByID_ScopedToOwner(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "alice")
	other := seedUser(t, r, "bob")
	c := seedContact(t, r, owner.ID, "Anna", "anna@x.com", "111", nil)

	got, err := r.ContactByID(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)

	_, err = r.ContactByID(ctx, other.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteContact(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "alice")
	c := seedContact(t, r, owner.ID, "Anna", "anna@x.com", "111", nil)

	deleted, err := r.DeleteContact(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)

	_, err = r.ContactByID(ctx, owner.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpcomingBirthdays(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := seedUser(t, r, "alice")

	now := time.Now()
	soon := now.AddDate(-30, 0, 3)   // birthday in 3 days
	far := now.AddDate(-25, 0, 40)   // birthday in ~40 days
	past := now.AddDate(-20, 0, -10) // birthday ~10 days ago, next one ~355 days out

	seedContact(t, r, owner.ID, "Soon", "soon@x.com", "111", &soon)
	seedContact(t, r, owner.ID, "Far", "far@x.com", "222", &far)
	seedContact(t, r, owner.ID, "Past", "past@x.com", "333", &past)
	seedContact(t, r, owner.ID, "NoDate", "nodate@x.com", "444", nil)

	upcoming, err := r.UpcomingBirthdays(ctx, owner.ID, 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Soon", upcoming[0].Name)
}

func TestNextBirthday_YearRollover(t *testing.T) {
	today := time.Date(2026, time.December, 30, 0, 0, 0, 0, time.UTC)
	birth := time.Date(1990, time.January, 2, 0, 0, 0, 0, time.UTC)

	nb := nextBirthday(birth, today)
	assert.Equal(t, 2027, nb.Year())
	assert.Equal(t, time.January, nb.Month())
	assert.Equal(t, 2, nb.Day())
}
