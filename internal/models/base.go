package models

import "time"

// Base carries the columns every owned record shares. Deleting the owner
// deletes the record.
type Base struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;not null" json:"created_at"`
	ModifiedAt time.Time `gorm:"autoUpdateTime;not null" json:"modified_at"`
	OwnerID    uint64    `gorm:"index;not null" json:"owner_id"`
	Owner      *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (b *Base) GetID() uint64      { return b.ID }
func (b *Base) SetOwner(id uint64) { b.OwnerID = id }

// User owns every other record. It has no owner column of its own.
type User struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Theme        string    `gorm:"not null;default:'mixed'" json:"theme"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time `gorm:"autoCreateTime;not null" json:"created_at"`
	ModifiedAt   time.Time `gorm:"autoUpdateTime;not null" json:"modified_at"`
}

func (u *User) GetID() uint64 { return u.ID }
func (*User) SetOwner(uint64) {}

// All lists every table in migration order.
func All() []any {
	return []any{
		&User{},
		&Company{},
		&Location{},
		&Aggregator{},
		&Keyword{},
		&Person{},
		&File{},
		&Job{},
		&JobApplication{},
		&JobApplicationUpdate{},
		&Interview{},
		&JobAlertEmail{},
		&ScrapedJob{},
		&ServiceLog{},
	}
}
