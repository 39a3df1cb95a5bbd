// Package models holds the monitor data model shared by client and server:
// the persisted Monitor, its partial-update patch, collection paths and
// the ordering rule applied to every snapshot.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/go-playground/validator/v10"
)

// Status is the derived state of a monitor.
type Status string

const (
	StatusNew     Status = "new"
	StatusStable  Status = "stable"
	StatusChanged Status = "changed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusStable, StatusChanged:
		return true
	}
	return false
}

// Monitor is a tracked (URL, selector, name) triple with its latest
// observation. CreatedAt is nil until the store has assigned it.
type Monitor struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Selector    string     `json:"selector"`
	LastValue   *string    `json:"lastValue"`
	LastChecked *time.Time `json:"lastChecked"`
	Status      Status     `json:"status"`
	CreatedAt   *time.Time `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

// Fields are the user-editable attributes of a monitor.
type Fields struct {
	Name     string `json:"name" validate:"notblank"`
	URL      string `json:"url" validate:"required,url"`
	Selector string `json:"selector" validate:"notblank"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Validate checks that name and selector are non-blank and url is an
// absolute URL. The returned error wraps common.ErrValidationFailed.
func (f Fields) Validate() error {
	if err := validate.Struct(f); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			names := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				names = append(names, strings.ToLower(fe.Field()))
			}
			return fmt.Errorf("%w: invalid %s", common.ErrValidationFailed, strings.Join(names, ", "))
		}
		return fmt.Errorf("%w: %v", common.ErrValidationFailed, err)
	}
	return nil
}

// Trimmed returns f with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Name:     strings.TrimSpace(f.Name),
		URL:      strings.TrimSpace(f.URL),
		Selector: strings.TrimSpace(f.Selector),
	}
}

// Fields returns the editable part of m.
func (m *Monitor) Fields() Fields {
	return Fields{Name: m.Name, URL: m.URL, Selector: m.Selector}
}

// HasValue reports whether an observation has been recorded.
func (m *Monitor) HasValue() bool {
	return m.LastValue != nil
}

// ValueOr returns the last value or def when none was recorded.
func (m *Monitor) ValueOr(def string) string {
	if m.LastValue == nil {
		return def
	}
	return *m.LastValue
}

// StringPtr is a small helper for optional string fields.
func StringPtr(s string) *string {
	return &s
}
