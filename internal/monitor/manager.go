// Package monitor is the monitor lifecycle manager of the client: it
// validates user input, derives status transitions and turns them into
// writes against the remote store.
package monitor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/client/client"
	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/sethvargo/go-retry"
)

// OrderHint is passed to the store with every subscription. Snapshots are
// re-sorted locally regardless.
const OrderHint = "createdAt desc"

// Store is the remote store contract the manager writes through.
type Store interface {
	CreateRecord(ctx context.Context, collectionPath string, fields models.Fields, status models.Status, lastValue *string) (string, error)
	UpdateRecord(ctx context.Context, docPath string, patch models.Patch) error
	DeleteRecord(ctx context.Context, docPath string) error
	Subscribe(ctx context.Context, collectionPath, orderHint string) (client.SnapshotStream, error)
}

// Owner yields the signed-in user id, or "" without a session.
type Owner interface {
	UserID() string
}

// Confirmer gates destructive operations.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Rand picks an index in [0, n).
type Rand interface {
	IntN(n int) int
}

type Manager struct {
	store      Store
	owner      Owner
	candidates []string
	rand       Rand
	logger     logging.Logger
	backoff    func() retry.Backoff
}

// NewManager builds a manager. A nil store leaves every write failing with
// common.ErrPreconditionFailed. A nil rnd uses math/rand/v2.
func NewManager(store Store, owner Owner, candidates []string, rnd Rand, l logging.Logger) *Manager {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	return &Manager{
		store:      store,
		owner:      owner,
		candidates: append([]string(nil), candidates...),
		rand:       rnd,
		logger:     l.With("module", "monitor_manager"),
		backoff: func() retry.Backoff {
			return retry.WithCappedDuration(10*time.Second, retry.NewExponential(250*time.Millisecond))
		},
	}
}

// ready returns the owner id when a session and a store are present.
func (m *Manager) ready() (string, error) {
	if m.store == nil {
		return "", fmt.Errorf("%w: store is not connected", common.ErrPreconditionFailed)
	}
	owner := ""
	if m.owner != nil {
		owner = m.owner.UserID()
	}
	if owner == "" {
		return "", fmt.Errorf("%w: sign in first", common.ErrPreconditionFailed)
	}
	return owner, nil
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", common.ErrValidationFailed)
	}
	return nil
}

// Create stores a new monitor with status new and no value.
func (m *Manager) Create(ctx context.Context, name, url, selector string) (string, error) {
	fields := models.Fields{Name: name, URL: url, Selector: selector}.Trimmed()
	if err := fields.Validate(); err != nil {
		return "", err
	}
	owner, err := m.ready()
	if err != nil {
		return "", err
	}

	id, err := m.store.CreateRecord(ctx, models.CollectionPath(owner), fields, models.StatusNew, nil)
	if err != nil {
		return "", fmt.Errorf("create monitor: %w", err)
	}
	m.logger.Info(ctx, "monitor created", "id", id)
	return id, nil
}

// Update rewrites the editable fields. A non-blank manualValue is also
// recorded as a stable observation.
func (m *Manager) Update(ctx context.Context, id, name, url, selector, manualValue string) error {
	if err := checkID(id); err != nil {
		return err
	}
	fields := models.Fields{Name: name, URL: url, Selector: selector}.Trimmed()
	if err := fields.Validate(); err != nil {
		return err
	}
	owner, err := m.ready()
	if err != nil {
		return err
	}

	patch := models.FieldsPatch(fields)
	if v := strings.TrimSpace(manualValue); v != "" {
		patch = patch.WithObservation(v, models.StatusStable)
	}

	if err := m.store.UpdateRecord(ctx, models.DocPath(owner, id), patch); err != nil {
		return fmt.Errorf("update monitor %s: %w", id, err)
	}
	return nil
}

// Delete removes a monitor after confirm agrees. It returns false without
// touching the store when the user declines.
func (m *Manager) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	owner, err := m.ready()
	if err != nil {
		return false, err
	}
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Delete monitor %s? This cannot be undone.", id)) {
		return false, nil
	}

	if err := m.store.DeleteRecord(ctx, models.DocPath(owner, id)); err != nil {
		return false, fmt.Errorf("delete monitor %s: %w", id, err)
	}
	m.logger.Info(ctx, "monitor deleted", "id", id)
	return true, nil
}

// CheckResult is the observation a Check wrote.
type CheckResult struct {
	Previous *string
	Value    string
	Status   models.Status
}

// Check simulates fetching the monitored value by sampling a candidate and
// writes the observation with the derived status.
func (m *Manager) Check(ctx context.Context, mon models.Monitor) (*CheckResult, error) {
	if err := checkID(mon.ID); err != nil {
		return nil, err
	}
	if len(m.candidates) == 0 {
		return nil, fmt.Errorf("%w: no check candidates configured", common.ErrConfigurationMissing)
	}
	owner, err := m.ready()
	if err != nil {
		return nil, err
	}

	value := m.candidates[m.rand.IntN(len(m.candidates))]
	status := NextStatus(mon.LastValue, value)

	patch := models.Patch{}.WithObservation(value, status)
	if err := m.store.UpdateRecord(ctx, models.DocPath(owner, mon.ID), patch); err != nil {
		return nil, fmt.Errorf("check monitor %s: %w", mon.ID, err)
	}
	return &CheckResult{Previous: mon.LastValue, Value: value, Status: status}, nil
}
