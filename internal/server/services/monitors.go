package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/common"
	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/logging"
	"github.com/dmitrijs2005/pagewatch/internal/models"
	"github.com/dmitrijs2005/pagewatch/internal/server/broker"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/monitors"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// WriteObserver is told about every applied write, keyed by operation.
type WriteObserver interface {
	ObserveWrite(op string)
}

type nopObserver struct{}

func (nopObserver) ObserveWrite(string) {}

// CreateInput is the initial state of a monitor document. Status may only
// be empty or new and LastValue must be nil.
type CreateInput struct {
	Fields    models.Fields
	Status    models.Status
	LastValue *string
}

// MonitorService owns the monitor documents of every user. Each call is
// scoped to the authenticated userID; a path naming another owner is
// rejected with common.ErrPermissionDenied.
type MonitorService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	broker       broker.Broker
	historyDepth int
	observer     WriteObserver
	logger       logging.Logger
	now          func() time.Time
}

func NewMonitorService(db *sql.DB, m repomanager.RepositoryManager, b broker.Broker, historyDepth int, l logging.Logger) *MonitorService {
	return &MonitorService{
		db:           db,
		repomanager:  m,
		broker:       b,
		historyDepth: historyDepth,
		observer:     nopObserver{},
		logger:       l.With("module", "monitor_service"),
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// SetObserver replaces the write observer.
func (s *MonitorService) SetObserver(o WriteObserver) {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

func (s *MonitorService) ownCollection(userID, collectionPath string) error {
	owner, err := models.ParseCollectionPath(collectionPath)
	if err != nil {
		return err
	}
	if owner != userID {
		return common.ErrPermissionDenied
	}
	return nil
}

func (s *MonitorService) ownDoc(userID, docPath string) (string, error) {
	owner, id, err := models.ParseDocPath(docPath)
	if err != nil {
		return "", err
	}
	if owner != userID {
		return "", common.ErrPermissionDenied
	}
	return id, nil
}

// Create stores a new document and returns its id. createdAt and
// updatedAt are the server clock.
func (s *MonitorService) Create(ctx context.Context, userID, collectionPath string, in CreateInput) (string, error) {
	if err := s.ownCollection(userID, collectionPath); err != nil {
		return "", err
	}

	f := in.Fields.Trimmed()
	if err := f.Validate(); err != nil {
		return "", err
	}
	if (in.Status != "" && in.Status != models.StatusNew) || in.LastValue != nil {
		return "", fmt.Errorf("%w: a new monitor starts as %q without a value", common.ErrValidationFailed, models.StatusNew)
	}

	now := s.now()
	var created *models.Monitor
	err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m, err := s.repomanager.Monitors(tx).Create(ctx, userID, monitors.NewMonitor{
			Fields: f, Status: models.StatusNew, Now: now,
		})
		if err != nil {
			return err
		}
		created = m
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create monitor: %w", err)
	}

	s.observer.ObserveWrite("create")
	s.broker.Publish(ctx, userID)
	s.logger.Debug(ctx, "monitor created", "owner", userID, "id", created.ID)
	return created.ID, nil
}

// Update applies patch. Updating a missing document is common.ErrorNotFound.
// Every write that sets a value appends to the history, which is then
// pruned to the configured depth.
func (s *MonitorService) Update(ctx context.Context, userID, docPath string, patch models.Patch) error {
	id, err := s.ownDoc(userID, docPath)
	if err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	now := s.now()
	err = dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m, err := s.repomanager.Monitors(tx).Update(ctx, userID, id, patch, now)
		if err != nil {
			return err
		}
		if patch.LastValue == nil {
			return nil
		}
		hist := s.repomanager.History(tx)
		observedAt := now
		if m.LastChecked != nil {
			observedAt = *m.LastChecked
		}
		if err := hist.Append(ctx, id, *patch.LastValue, m.Status, observedAt); err != nil {
			return err
		}
		_, err = hist.Prune(ctx, id, s.historyDepth)
		return err
	})
	if err != nil {
		return fmt.Errorf("update monitor: %w", err)
	}

	s.observer.ObserveWrite("update")
	s.broker.Publish(ctx, userID)
	return nil
}

// Delete removes a document. Deleting a missing document is a no-op.
func (s *MonitorService) Delete(ctx context.Context, userID, docPath string) error {
	id, err := s.ownDoc(userID, docPath)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	removed, err := s.repomanager.Monitors(s.db).Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	if !removed {
		s.logger.Debug(ctx, "delete of missing monitor ignored", "owner", userID, "id", id)
		return nil
	}

	s.observer.ObserveWrite("delete")
	s.broker.Publish(ctx, userID)
	return nil
}

// List returns the current documents of a collection, newest first.
func (s *MonitorService) List(ctx context.Context, userID, collectionPath string) ([]models.Monitor, error) {
	if err := s.ownCollection(userID, collectionPath); err != nil {
		return nil, err
	}
	ms, err := s.repomanager.Monitors(s.db).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	return ms, nil
}

// History returns up to limit observations of a document, newest first.
// limit is clamped to the configured depth.
func (s *MonitorService) History(ctx context.Context, userID, docPath string, limit int) ([]models.HistoryEntry, error) {
	id, err := s.ownDoc(userID, docPath)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	if _, err := s.repomanager.Monitors(s.db).Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.historyDepth {
		limit = s.historyDepth
	}
	entries, err := s.repomanager.History(s.db).List(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Watch subscribes to change signals for userID's collection.
func (s *MonitorService) Watch(userID, collectionPath string) (<-chan struct{}, func(), error) {
	if err := s.ownCollection(userID, collectionPath); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.broker.Subscribe(userID)
	return ch, cancel, nil
}
