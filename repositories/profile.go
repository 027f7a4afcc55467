//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"encoding/json"
	"log/slog"
	"match-mate/domain"
	"match-mate/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IProfileRepository interface {
	Create(profile domain.Profile) (domain.Profile, error)
	Get(id string) (domain.Profile, error)
	GetByEmail(email string) (domain.Profile, error)
}

// ProfileRepository is the user directory. Two key families:
// "profile:id:{id}" holds the record, "profile:email:{email}" holds the id
// for the login lookup.
type ProfileRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewProfileRepository(db *badger.DB, log *slog.Logger) ProfileRepository {
	return ProfileRepository{db: db, log: log}
}

// diskProfile is the stored representation. The domain Profile hides the
// password hash from JSON surfaces, so the repository keeps its own record.
type diskProfile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Interests    []string  `json:"interests"`
	CreatedAt    time.Time `json:"created_at"`
}

func toDiskProfile(p domain.Profile) diskProfile {
	return diskProfile{
		ID:           p.ID,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Name:         p.Name,
		City:         p.City,
		Interests:    p.Interests,
		CreatedAt:    p.CreatedAt,
	}
}

func fromDiskProfile(d diskProfile) domain.Profile {
	return domain.Profile{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		City:         d.City,
		Interests:    d.Interests,
		CreatedAt:    d.CreatedAt,
	}
}

// Create persists the profile and assigns its ID. The email must be unique.
func (p ProfileRepository) Create(profile domain.Profile) (domain.Profile, error) {
	profile.ID = uuid.NewString()
	profile.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(toDiskProfile(profile))
	if err != nil {
		return domain.Profile{}, errors.Storage(err)
	}

	err = p.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte("profile:email:" + profile.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey, []byte(profile.ID)); err != nil {
			return err
		}
		return txn.Set([]byte("profile:id:"+profile.ID), data)
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrUserAlreadyExists) {
			return domain.Profile{}, err
		}
		return domain.Profile{}, errors.Storage(err)
	}
	return profile, nil
}

func (p ProfileRepository) Get(id string) (domain.Profile, error) {
	var disk diskProfile
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("profile:id:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Profile{}, errors.ErrProfileNotFound
		}
		return domain.Profile{}, errors.Storage(err)
	}
	return fromDiskProfile(disk), nil
}

func (p ProfileRepository) GetByEmail(email string) (domain.Profile, error) {
	var id string
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("profile:email:" + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Profile{}, errors.ErrProfileNotFound
		}
		return domain.Profile{}, errors.Storage(err)
	}
	return p.Get(id)
}
