package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/matuszelenak/trojsten-graph/vardate"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// validateStruct runs the govalidator tags of payload and records every
// failing field under row.
func validateStruct(row int, payload any, verr *domain.ValidationError) {
	if _, err := govalidator.ValidateStruct(payload); err != nil {
		byField := govalidator.ErrorsByField(err)
		fields := make([]string, 0, len(byField))
		for field := range byField {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			verr.Add(row, field, byField[field])
		}
	}
}

// parseDate reads an optional date field. An empty string means unknown.
func parseDate(row int, field, text string, verr *domain.ValidationError) *vardate.Date {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	d, err := vardate.Parse(text)
	if err != nil {
		verr.Add(row, field, err.Error())
		return nil
	}
	return &d
}

func checkOrder(row int, field string, start, end *vardate.Date, verr *domain.ValidationError) {
	if start != nil && end != nil && end.Before(*start) {
		verr.Add(row, field, "The end can not precede the start")
	}
}

// newSecret returns a random 32 character token.
func newSecret() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
