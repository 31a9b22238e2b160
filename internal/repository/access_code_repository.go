package repository

import (
	"context"
	"fmt"
	"sort"

	"scriptvault/api/internal/models"
	"scriptvault/api/internal/storage"
)

const accessCodesPrefix = "access_codes/"

// AccessCodeRepository persists single-use registration codes. The
// used flag is flipped by a read-modify-write with no compare-and-swap;
// two simultaneous redemptions can both observe used=false. The service
// layer documents and tolerates that window.
type AccessCodeRepository struct {
	records *storage.RecordStore
}

func NewAccessCodeRepository(records *storage.RecordStore) *AccessCodeRepository {
	return &AccessCodeRepository{records: records}
}

func accessCodeKey(code string) string {
	return fmt.Sprintf("%s%s.json", accessCodesPrefix, code)
}

func (r *AccessCodeRepository) Get(ctx context.Context, code string) (models.AccessCode, error) {
	var rec models.AccessCode
	if err := r.records.ReadFirst(ctx, accessCodeKey(code), &rec); err != nil {
		return models.AccessCode{}, err
	}
	return rec, nil
}

func (r *AccessCodeRepository) Save(ctx context.Context, rec models.AccessCode) error {
	_, err := r.records.Write(ctx, accessCodeKey(rec.Code), rec)
	return err
}

// List returns every code, newest first.
func (r *AccessCodeRepository) List(ctx context.Context) ([]models.AccessCode, error) {
	infos, err := r.records.List(ctx, accessCodesPrefix)
	if err != nil {
		return nil, err
	}

	codes := make([]models.AccessCode, 0, len(infos))
	for _, info := range infos {
		var rec models.AccessCode
		if err := r.records.ReadKey(ctx, info.Key, &rec); err != nil {
			return nil, err
		}
		codes = append(codes, rec)
	}

	sort.Slice(codes, func(i, j int) bool {
		return codes[i].CreatedAt.After(codes[j].CreatedAt)
	})
	return codes, nil
}
