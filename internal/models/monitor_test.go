package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_Validate(t *testing.T) {
	tests := []struct {
		name    string
		f       Fields
		wantErr string
	}{
		{name: "ok", f: Fields{Name: "Price Tracker", URL: "https://shop.test/x", Selector: ".price"}},
		{name: "blank name", f: Fields{Name: "  ", URL: "https://shop.test/x", Selector: ".price"}, wantErr: "name"},
		{name: "relative url", f: Fields{Name: "n", URL: "/x", Selector: ".price"}, wantErr: "url"},
		{name: "empty url", f: Fields{Name: "n", URL: "", Selector: ".price"}, wantErr: "url"},
		{name: "empty selector", f: Fields{Name: "n", URL: "https://a.test", Selector: ""}, wantErr: "selector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFields_Trimmed(t *testing.T) {
	f := Fields{Name: " a ", URL: " https://x.test ", Selector: "\t.p\n"}.Trimmed()
	assert.Equal(t, Fields{Name: "a", URL: "https://x.test", Selector: ".p"}, f)
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusNew.Valid())
	assert.True(t, StatusChanged.Valid())
	assert.False(t, Status("broken").Valid())
}

func TestPatch_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	base := Monitor{ID: "m1", Name: "old", URL: "https://a.test", Selector: ".a", Status: StatusNew, CreatedAt: &created}

	p := FieldsPatch(Fields{Name: "new", URL: "https://b.test", Selector: ".b"}).
		WithObservation("In Stock", StatusStable)
	got := p.Apply(base, now, now)

	want := Monitor{
		ID: "m1", Name: "new", URL: "https://b.test", Selector: ".b",
		LastValue: StringPtr("In Stock"), LastChecked: &now, Status: StatusStable,
		CreatedAt: &created, UpdatedAt: &now,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Apply mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, base.LastValue, "input must not be mutated")
}

func TestPatch_Empty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	assert.False(t, FieldsPatch(Fields{}).Empty())
}

func TestTimestamp_JSON(t *testing.T) {
	b, err := json.Marshal(ServerTimestamp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"server":true}`, string(b))

	var ts Timestamp
	require.NoError(t, json.Unmarshal(b, &ts))
	assert.True(t, ts.Server)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b, err = json.Marshal(At(at))
	require.NoError(t, err)
	ts = Timestamp{}
	require.NoError(t, json.Unmarshal(b, &ts))
	assert.False(t, ts.Server)
	assert.True(t, at.Equal(ts.At))
	assert.True(t, at.Equal(ts.Resolve(time.Now())))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "users/u1/monitors", CollectionPath("u1"))
	assert.Equal(t, "users/u1/monitors/m1", DocPath("u1", "m1"))

	owner, err := ParseCollectionPath("users/u1/monitors")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	owner, id, err := ParseDocPath("users/u1/monitors/m1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
	assert.Equal(t, "m1", id)

	for _, bad := range []string{"", "users//monitors", "people/u1/monitors", "users/u1/things", "users/u1/monitors/extra/seg"} {
		_, err := ParseCollectionPath(bad)
		assert.ErrorIs(t, err, common.ErrValidationFailed, bad)
	}
	for _, bad := range []string{"m1", "users/u1/monitors/", "users/u1/monitors", "users/u1/x/m1"} {
		_, _, err := ParseDocPath(bad)
		assert.ErrorIs(t, err, common.ErrValidationFailed, bad)
	}
}

func TestSortByCreatedDesc(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	ms := []Monitor{
		{ID: "pending"},
		{ID: "old", CreatedAt: &t1},
		{ID: "newest", CreatedAt: &t3},
		{ID: "pending2"},
		{ID: "mid", CreatedAt: &t2},
	}
	SortByCreatedDesc(ms)

	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"newest", "mid", "old", "pending", "pending2"}, ids)
	assert.True(t, IsSortedByCreatedDesc(ms))

	ms[0], ms[4] = ms[4], ms[0]
	assert.False(t, IsSortedByCreatedDesc(ms))
}

func TestMonitor_ValueOr(t *testing.T) {
	m := Monitor{}
	assert.False(t, m.HasValue())
	assert.Equal(t, "-", m.ValueOr("-"))
	m.LastValue = StringPtr("x")
	assert.Equal(t, "x", m.ValueOr("-"))
}

func TestPatch_Validate(t *testing.T) {
	stable := StatusStable
	newStatus := StatusNew
	blank := " "
	badURL := "not a url"

	tests := []struct {
		name string
		p    Patch
		ok   bool
	}{
		{name: "fields only", p: FieldsPatch(Fields{Name: "n", URL: "https://a.test", Selector: ".p"}), ok: true},
		{name: "observation", p: Patch{}.WithObservation("x", StatusChanged), ok: true},
		{name: "empty", p: Patch{}, ok: true},
		{name: "blank name", p: Patch{Name: &blank}},
		{name: "blank selector", p: Patch{Selector: &blank}},
		{name: "bad url", p: Patch{URL: &badURL}},
		{name: "status without value", p: Patch{Status: &stable}},
		{name: "value without status", p: Patch{LastValue: StringPtr("x")}},
		{name: "back to new", p: Patch{LastValue: StringPtr("x"), Status: &newStatus}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrValidationFailed)
			}
		})
	}
}
