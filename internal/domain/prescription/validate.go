package prescription

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/go-playground/validator/v10"
)

// Validator checks drafts against the record constraints. Date rules are evaluated against the
// calendar day of the injected clock.
type Validator struct {
	v     *validator.Validate
	clock func() time.Time
}

func NewValidator(clock func() time.Time) *Validator {
	if clock == nil {
		clock = time.Now
	}

	pv := &Validator{
		v:     validator.New(validator.WithRequiredStructEnabled()),
		clock: clock,
	}

	pv.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Dates reach the rules as their YYYY-MM-DD text; an unset Date reads as absent. Text keeps
	// 0001-01-01 distinct from an unset Date.
	pv.v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.String()
	}, Date{})

	_ = pv.v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// postgres TEXT cannot hold NUL
	_ = pv.v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	_ = pv.v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		d, err := ParseDate(fl.Field().String())
		return err == nil && !d.After(pv.Today())
	})
	_ = pv.v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		d, err := ParseDate(fl.Field().String())
		return err == nil && d.After(pv.Today())
	})

	return pv
}

// Today is the server's current calendar day.
func (pv *Validator) Today() Date {
	return DateOf(pv.clock())
}

// Validate returns a *common.ValidationError listing every violated constraint, or nil.
func (pv *Validator) Validate(d Draft) error {
	err := pv.v.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &common.ValidationError{Fields: []common.FieldError{{
			Field:   "body",
			Rule:    "invalid",
			Message: err.Error(),
		}}}
	}

	fields := make([]common.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, common.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: common.ValidationMessage(fe.Tag(), fe.Param()),
		})
	}

	return &common.ValidationError{Fields: fields}
}
