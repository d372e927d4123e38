package models

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDuplicateSelf    = errors.New("a job cannot be a duplicate of itself")
	ErrDuplicateUnknown = errors.New("duplicate job not found")
	ErrDuplicateCycle   = errors.New("duplicate chain would form a cycle")
)

// CheckDuplicate verifies that jobID may point at dupID. jobID is 0 for a job
// that does not exist yet. The chain is walked within the owner's jobs only.
// On postgres the walked rows stay locked until tx ends, so two writers
// closing the same loop serialize instead of both passing.
func CheckDuplicate(tx *gorm.DB, ownerID, jobID, dupID uint64) error {
	if jobID != 0 && dupID == jobID {
		return ErrDuplicateSelf
	}

	seen := map[uint64]struct{}{}
	cur := dupID
	for {
		var row struct {
			ID          uint64
			DuplicateID *uint64
		}
		err := lockChain(tx).Model(&Job{}).
			Select("id, duplicate_id").
			Where("id = ? AND owner_id = ?", cur, ownerID).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if cur == dupID {
				return ErrDuplicateUnknown
			}
			return nil
		}
		if err != nil {
			return err
		}

		seen[cur] = struct{}{}
		if row.DuplicateID == nil {
			return nil
		}
		next := *row.DuplicateID
		if next == jobID {
			return ErrDuplicateCycle
		}
		if _, ok := seen[next]; ok {
			return ErrDuplicateCycle
		}
		cur = next
	}
}

func lockChain(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return tx
}
