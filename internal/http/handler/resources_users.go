package handler

import (
	"strings"

	"jam/internal/auth"
	"jam/internal/crud"
	"jam/internal/models"

	"gorm.io/gorm"
)

type userIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Theme    string `json:"theme" validate:"omitempty,oneof=light dark mixed"`
	IsAdmin  bool   `json:"is_admin"`
}

type userPatch struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Theme    *string `json:"theme" validate:"omitempty,oneof=light dark mixed"`
	IsAdmin  *bool   `json:"is_admin"`
}

func emailTaken(tx *gorm.DB, email string, except uint64) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, except).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return crud.Invalidf("email already used")
	}
	return nil
}

// Users is the administrator view of accounts.
var Users = crud.Resource[models.User, userIn, userPatch, *models.User]{
	Segment:   "users",
	NotFound:  "User not found",
	AdminOnly: true,
	New: func(tx *gorm.DB, _ uint64, in userIn) (models.User, error) {
		email := strings.TrimSpace(strings.ToLower(in.Email))
		if err := emailTaken(tx, email, 0); err != nil {
			return models.User{}, err
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return models.User{}, err
		}
		theme := in.Theme
		if theme == "" {
			theme = "mixed"
		}
		return models.User{Email: email, PasswordHash: hash, Theme: theme, IsAdmin: in.IsAdmin}, nil
	},
	Patch: func(tx *gorm.DB, _ uint64, m *models.User, in userPatch) error {
		if in.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*in.Email))
			if err := emailTaken(tx, email, m.ID); err != nil {
				return err
			}
			m.Email = email
		}
		if in.Password != nil {
			hash, err := auth.HashPassword(*in.Password)
			if err != nil {
				return err
			}
			m.PasswordHash = hash
		}
		crud.Set(&m.Theme, in.Theme)
		crud.Set(&m.IsAdmin, in.IsAdmin)
		return nil
	},
	Out: crud.Identity[models.User],
}
