package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
)

// Timestamp is a timestamp value inside a write. It is either a concrete
// instant or the ServerTimestamp sentinel, which the store replaces with
// its own clock when applying the write.
type Timestamp struct {
	Server bool
	At     time.Time
}

// ServerTimestamp asks the store to stamp the field with server time.
var ServerTimestamp = Timestamp{Server: true}

// At wraps a concrete instant.
func At(t time.Time) Timestamp {
	return Timestamp{At: t}
}

// Resolve returns the instant this value stands for given the store clock.
func (t Timestamp) Resolve(now time.Time) time.Time {
	if t.Server {
		return now
	}
	return t.At
}

type timestampWire struct {
	Server bool       `json:"server,omitempty"`
	At     *time.Time `json:"at,omitempty"`
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Server {
		return json.Marshal(timestampWire{Server: true})
	}
	at := t.At
	return json.Marshal(timestampWire{At: &at})
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var w timestampWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	t.Server = w.Server
	if w.At != nil {
		t.At = *w.At
	}
	return nil
}

// Patch is a partial update of a monitor document. Nil fields are left
// untouched. UpdatedAt is always stamped by the store.
type Patch struct {
	Name        *string    `json:"name,omitempty"`
	URL         *string    `json:"url,omitempty"`
	Selector    *string    `json:"selector,omitempty"`
	LastValue   *string    `json:"lastValue,omitempty"`
	LastChecked *Timestamp `json:"lastChecked,omitempty"`
	Status      *Status    `json:"status,omitempty"`
}

// FieldsPatch returns a patch rewriting the three editable fields.
func FieldsPatch(f Fields) Patch {
	return Patch{Name: &f.Name, URL: &f.URL, Selector: &f.Selector}
}

// WithObservation adds an observed value, stamped with server time, and
// the resulting status.
func (p Patch) WithObservation(value string, status Status) Patch {
	ts := ServerTimestamp
	p.LastValue = &value
	p.LastChecked = &ts
	p.Status = &status
	return p
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.URL == nil && p.Selector == nil &&
		p.LastValue == nil && p.LastChecked == nil && p.Status == nil
}

// Apply returns a copy of m with the patch applied using now for server
// timestamps. UpdatedAt is set to updatedAt.
func (p Patch) Apply(m Monitor, now, updatedAt time.Time) Monitor {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.URL != nil {
		m.URL = *p.URL
	}
	if p.Selector != nil {
		m.Selector = *p.Selector
	}
	if p.LastValue != nil {
		v := *p.LastValue
		m.LastValue = &v
	}
	if p.LastChecked != nil {
		t := p.LastChecked.Resolve(now)
		m.LastChecked = &t
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	m.UpdatedAt = &updatedAt
	return m
}

// Validate rejects patches that would break the monitor invariants: blank
// editable fields, an invalid URL, a status without an observation, or a
// return to the new status.
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: invalid name", common.ErrValidationFailed)
	}
	if p.URL != nil {
		if err := validate.Var(*p.URL, "required,url"); err != nil {
			return fmt.Errorf("%w: invalid url", common.ErrValidationFailed)
		}
	}
	if p.Selector != nil && strings.TrimSpace(*p.Selector) == "" {
		return fmt.Errorf("%w: invalid selector", common.ErrValidationFailed)
	}
	if p.Status != nil {
		if !p.Status.Valid() || *p.Status == StatusNew {
			return fmt.Errorf("%w: invalid status %q", common.ErrValidationFailed, *p.Status)
		}
		if p.LastValue == nil {
			return fmt.Errorf("%w: status requires a value", common.ErrValidationFailed)
		}
	}
	if p.LastValue != nil && p.Status == nil {
		return fmt.Errorf("%w: value requires a status", common.ErrValidationFailed)
	}
	return nil
}
