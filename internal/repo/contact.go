package repo

import (
	"context"
	"time"

	"github.com/contactkeeper/contacts_api/internal/models"
)

type ContactFilter struct {
	Name     string
	LastName string
	Email    string
	Skip     int
	Limit    int
}

func (r *GormRepo) Contacts(ctx context.Context, userID uint, f ContactFilter) ([]models.Contact, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)

	// LOWER on both sides keeps the match case-insensitive on postgres and
	// sqlite alike; plain LIKE is case-sensitive on postgres.
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+f.Name+"%")
	}
	if f.LastName != "" {
		q = q.Where("LOWER(last_name) LIKE LOWER(?)", "%"+f.LastName+"%")
	}
	if f.Email != "" {
		q = q.Where("LOWER(email) LIKE LOWER(?)", "%"+f.Email+"%")
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 100
	}

	var contacts []models.Contact
	if err := q.Offset(f.Skip).Limit(f.Limit).Order("id").Find(&contacts).Error; err != nil {
		return nil, translate(err)
	}
	return contacts, nil
}

func (r *GormRepo) ContactByID(ctx context.Context, userID, contactID uint) (*models.Contact, error) {
	var contact models.Contact
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, contactID).
		First(&contact).Error
	if err != nil {
		return nil, translate(err)
	}
	return &contact, nil
}

func (r *GormRepo) CreateContact(ctx context.Context, c *models.Contact) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *GormRepo) UpdateContact(ctx context.Context, c *models.Contact) error {
	return translate(r.DB.WithContext(ctx).Save(c).Error)
}

func (r *GormRepo) DeleteContact(ctx context.Context, userID, contactID uint) (*models.Contact, error) {
	contact, err := r.ContactByID(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Delete(contact).Error; err != nil {
		return nil, translate(err)
	}
	return contact, nil
}

// UpcomingBirthdays returns contacts whose next birthday falls within days
// from today. The month/day comparison is done here rather than in SQL so it
// behaves the same on every backend and handles the year roll-over.
func (r *GormRepo) UpcomingBirthdays(ctx context.Context, userID uint, days int) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND birth_date IS NOT NULL", userID).
		Find(&contacts).Error
	if err != nil {
		return nil, translate(err)
	}

	now := time.Now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	upcoming := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.BirthDate == nil {
			continue
		}
		delta := int(nextBirthday(*c.BirthDate, today).Sub(today).Hours() / 24)
		if delta >= 0 && delta <= days {
			upcoming = append(upcoming, c)
		}
	}
	return upcoming, nil
}

func nextBirthday(birth, today time.Time) time.Time {
	candidate := time.Date(today.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, today.Location())
	if candidate.Before(today) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return candidate
}
