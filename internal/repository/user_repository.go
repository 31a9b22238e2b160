package repository

import (
	"context"
	"fmt"
	"sort"

	"scriptvault/api/internal/models"
	"scriptvault/api/internal/storage"
)

const (
	usersPrefix  = "users/"
	adminSeedKey = "config/admin.json"
)

// UserRepository persists credential records in the object store, one
// record per username. The store offers no delete and no conditional put,
// so uniqueness is an existence pre-check; see Exists call sites.
type UserRepository struct {
	records *storage.RecordStore
}

func NewUserRepository(records *storage.RecordStore) *UserRepository {
	return &UserRepository{records: records}
}

func userKey(username string) string {
	return fmt.Sprintf("%s%s.json", usersPrefix, username)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.records.ReadFirst(ctx, userKey(username), &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Exists is the cheap duplicate pre-check: one prefix listing, no body
// fetch. A concurrent Create can still slip in between Exists and Create.
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	return r.records.Exists(ctx, userKey(username))
}

// Create writes the record unconditionally, overwriting any record a
// racing writer produced since the caller's pre-check.
func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.records.Write(ctx, userKey(user.Username), user)
	return err
}

// List returns every user record, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	infos, err := r.records.List(ctx, usersPrefix)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(infos))
	for _, info := range infos {
		var user models.User
		if err := r.records.ReadKey(ctx, info.Key, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

// SeedExists reports whether the bootstrap configuration record is present.
func (r *UserRepository) SeedExists(ctx context.Context) (bool, error) {
	return r.records.Exists(ctx, adminSeedKey)
}

func (r *UserRepository) ReadSeed(ctx context.Context) (models.AdminSeed, error) {
	var seed models.AdminSeed
	if err := r.records.ReadFirst(ctx, adminSeedKey, &seed); err != nil {
		return models.AdminSeed{}, err
	}
	return seed, nil
}

func (r *UserRepository) WriteSeed(ctx context.Context, seed models.AdminSeed) error {
	_, err := r.records.Write(ctx, adminSeedKey, seed)
	return err
}
