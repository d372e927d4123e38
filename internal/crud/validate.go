package crud

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a decoded payload against its `validate` tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			// non-struct payloads carry no tags
			return nil
		}
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// RequireOwned fails with ErrInvalid unless id is nil or names a row of
// model owned by ownerID.
func RequireOwned(tx *gorm.DB, ownerID uint64, model any, id *uint64, field string) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(model).Where("id = ? AND owner_id = ?", *id, ownerID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return Invalidf("%s %d not found", field, *id)
	}
	return nil
}

// LoadOwned fetches every row of ids owned by ownerID, failing if any is missing.
func LoadOwned[M any](tx *gorm.DB, ownerID uint64, ids []uint64, field string) ([]M, error) {
	out := []M{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := tx.Where("id IN ? AND owner_id = ?", ids, ownerID).Find(&out).Error; err != nil {
		return nil, err
	}
	uniq := map[uint64]struct{}{}
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	if len(out) != len(uniq) {
		return nil, Invalidf("%s contains unknown ids", field)
	}
	return out, nil
}
