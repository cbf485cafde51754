package repo

import (
	"context"

	"github.com/contactkeeper/contacts_api/internal/models"
)

func (r *GormRepo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

// SetRefreshToken overwrites the single stored refresh token. Concurrent
// logins race last-write-wins; the loser's token simply stops refreshing.
func (r *GormRepo) SetRefreshToken(ctx context.Context, userID uint, token string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ConfirmEmail(ctx context.Context, email string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("confirmed", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) UpdateAvatar(ctx context.Context, email, url string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.DB.WithContext(ctx).Model(&user).Update("avatar", url).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdatePassword stores the new hash and clears the refresh token in the same
// statement, so a password reset revokes the outstanding session.
func (r *GormRepo) UpdatePassword(ctx context.Context, email, passwordHash string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	updates := map[string]any{
		"password_hash": passwordHash,
		"refresh_token": "",
	}
	if err := r.DB.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
