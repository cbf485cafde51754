package contacts

import (
	"context"
	"errors"

	"github.com/contactkeeper/contacts_api/internal/logging"
	"github.com/contactkeeper/contacts_api/internal/models"
	"github.com/contactkeeper/contacts_api/internal/repo"
)

var ErrNotFound = errors.New("contact not found")

// Service owns contact CRUD for a single authenticated owner per call and
// keeps the search index in step. Indexing is best-effort: the database row
// is the source of truth, index failures are only logged.
type Service struct {
	Repo  *repo.GormRepo
	Index *Indexer
}

func New(r *repo.GormRepo, idx *Indexer) *Service {
	return &Service{Repo: r, Index: idx}
}

func (s *Service) List(ctx context.Context, user *models.User, f repo.ContactFilter) ([]models.Contact, error) {
	return s.Repo.Contacts(ctx, user.ID, f)
}

func (s *Service) Get(ctx context.Context, user *models.User, contactID uint) (*models.Contact, error) {
	contact, err := s.Repo.ContactByID(ctx, user.ID, contactID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return contact, nil
}

func (s *Service) Create(ctx context.Context, user *models.User, contact *models.Contact) (*models.Contact, error) {
	contact.ID = 0
	contact.UserID = user.ID
	if err := s.Repo.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	s.index(ctx, contact)
	return contact, nil
}

func (s *Service) Update(ctx context.Context, user *models.User, contactID uint, fields *models.Contact) (*models.Contact, error) {
	contact, err := s.Get(ctx, user, contactID)
	if err != nil {
		return nil, err
	}

	contact.Name = fields.Name
	contact.LastName = fields.LastName
	contact.Email = fields.Email
	contact.Phone = fields.Phone
	contact.BirthDate = fields.BirthDate
	contact.AdditionalInfo = fields.AdditionalInfo

	if err := s.Repo.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	s.index(ctx, contact)
	return contact, nil
}

func (s *Service) Delete(ctx context.Context, user *models.User, contactID uint) (*models.Contact, error) {
	contact, err := s.Repo.DeleteContact(ctx, user.ID, contactID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, contact.ID); err != nil {
			logging.FromContext(ctx).Error("contact deindex failed", "contact_id", contact.ID, "error", err)
		}
	}
	return contact, nil
}

func (s *Service) Upcoming(ctx context.Context, user *models.User, days int) ([]models.Contact, error) {
	if days <= 0 {
		days = 7
	}
	return s.Repo.UpcomingBirthdays(ctx, user.ID, days)
}

// Search queries the Elasticsearch index scoped to the owner.
func (s *Service) Search(ctx context.Context, user *models.User, query string, from, size int) (int64, []models.Contact, error) {
	if s.Index == nil {
		return 0, nil, errors.New("search index is not configured")
	}
	return s.Index.Search(ctx, user.ID, query, from, size)
}

func (s *Service) index(ctx context.Context, contact *models.Contact) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, contact); err != nil {
		logging.FromContext(ctx).Error("contact index failed", "contact_id", contact.ID, "error", err)
	}
}
