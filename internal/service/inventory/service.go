// Package inventory holds the in-memory inventory, mediates between user actions and the
// document store, and tracks the page presentation state.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository/docstore"
)

var (
	// ErrFetchFailure wraps any failure to list the collection.
	ErrFetchFailure = errors.New("fetch inventory failed")
	// ErrWriteFailure wraps any failure of an add, remove or set.
	ErrWriteFailure = errors.New("write inventory failed")
	// ErrNoPendingRemoval is returned by ConfirmRemoval when nothing awaits confirmation.
	ErrNoPendingRemoval = errors.New("no removal awaiting confirmation")
)

// Notification texts shown after each operation.
const (
	MsgFetchFailed  = "Failed to fetch inventory."
	MsgAddFailed    = "Failed to add item."
	MsgRemoveFailed = "Failed to remove item."
	MsgUpdateFailed = "Failed to update item."
	MsgAdded        = "Item added successfully."
	MsgRemoved      = "Item removed successfully."
	MsgUpdated      = "Item updated successfully."
)

// Options configures a Service.
type Options struct {
	Collection string
	// AtomicUpdates routes add and remove through docstore.Adjuster when the store has it.
	AtomicUpdates bool
}

// Page is what the inventory page renders: the presentation state and the filtered items.
type Page struct {
	State models.ViewState `json:"state"`
	Items []models.Item    `json:"items"`
}

// Service is the inventory controller. It is safe for concurrent use; store calls are made
// without holding the lock.
type Service struct {
	store      docstore.Store
	adjuster   docstore.Adjuster
	collection string
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.RWMutex
	items []models.Item
	view  models.ViewState
}

// NewService wires a controller over store.
func NewService(store docstore.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Collection == "" {
		opts.Collection = "pantry"
	}

	s := &Service{
		store:      store,
		collection: opts.Collection,
		logger:     logger,
		now:        time.Now,
		view:       models.NewViewState(),
	}
	if adj, ok := store.(docstore.Adjuster); ok && opts.AtomicUpdates {
		s.adjuster = adj
	}

	logger.Info("inventory controller ready",
		zap.String("collection", s.collection),
		zap.Bool("atomic_updates", s.adjuster != nil))
	return s
}

// List reloads the whole collection and replaces the local inventory. On failure the local
// inventory is kept and a notification is raised.
func (s *Service) List(ctx context.Context) (items []models.Item, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	s.transition(func(v models.ViewState) models.ViewState { return v.WithLoading(true) })

	loaded, err := s.fetch(ctx)
	if err != nil {
		s.transition(func(v models.ViewState) models.ViewState {
			return v.WithLoading(false).Notify(models.NotificationError, MsgFetchFailed, s.now())
		})
		return nil, err
	}

	s.mu.Lock()
	s.items = loaded
	s.view = s.view.WithLoading(false)
	s.mu.Unlock()

	return cloneItems(loaded), nil
}

// Load reloads the inventory like List but leaves the page state alone. Background
// readers (the chat bot, the daily report) use it so they never raise notifications on
// the page.
func (s *Service) Load(ctx context.Context) (items []models.Item, err error) {
	start := time.Now()
	defer func() { observe("load", start, err) }()

	loaded, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.items = loaded
	s.mu.Unlock()

	return cloneItems(loaded), nil
}

func (s *Service) fetch(ctx context.Context) ([]models.Item, error) {
	docs, err := s.store.ListAll(ctx, s.collection)
	if err != nil {
		s.logger.Error("failed to fetch inventory", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	loaded := make([]models.Item, 0, len(docs))
	for _, doc := range docs {
		item := models.ItemFromDocument(doc)
		if item.Quantity < 1 {
			s.logger.Warn("ignoring document without stock", zap.String("name", item.Name), zap.Int("quantity", item.Quantity))
			continue
		}
		loaded = append(loaded, item)
	}
	inventoryItems.Set(float64(len(loaded)))
	return loaded, nil
}

// Add increments name by incrementBy, creating the record when absent, then refreshes.
func (s *Service) Add(ctx context.Context, name string, incrementBy int) (err error) {
	if err := models.ValidateName(name); err != nil {
		return err
	}
	if err := models.ValidateIncrement(incrementBy); err != nil {
		return err
	}

	start := time.Now()
	defer func() { observe("add", start, err) }()

	if err := s.increment(ctx, name, incrementBy); err != nil {
		s.logger.Error("failed to add item", zap.String("name", name), zap.Int("increment", incrementBy), zap.Error(err))
		s.notify(models.NotificationError, MsgAddFailed)
		return fmt.Errorf("%w: add %q: %w", ErrWriteFailure, name, err)
	}

	s.refresh(ctx)
	s.notify(models.NotificationSuccess, MsgAdded)
	return nil
}

// Remove decrements name by one and deletes it when the last unit goes. Removing an absent
// item is a silent no-op.
func (s *Service) Remove(ctx context.Context, name string) (err error) {
	if err := models.ValidateName(name); err != nil {
		return err
	}

	start := time.Now()
	defer func() { observe("remove", start, err) }()

	existed, err := s.decrement(ctx, name)
	if err != nil {
		s.logger.Error("failed to remove item", zap.String("name", name), zap.Error(err))
		s.notify(models.NotificationError, MsgRemoveFailed)
		return fmt.Errorf("%w: remove %q: %w", ErrWriteFailure, name, err)
	}
	if !existed {
		s.logger.Debug("remove skipped, item absent", zap.String("name", name))
		return nil
	}

	s.refresh(ctx)
	s.notify(models.NotificationSuccess, MsgRemoved)
	return nil
}

// Set overwrites the quantity of name. A quantity of zero or less deletes the record.
func (s *Service) Set(ctx context.Context, name string, quantity int) (err error) {
	if err := models.ValidateName(name); err != nil {
		return err
	}

	start := time.Now()
	defer func() { observe("set", start, err) }()

	if quantity <= 0 {
		err = s.store.Delete(ctx, s.collection, name)
	} else {
		err = s.store.Put(ctx, s.collection, name, models.Fields{Quantity: quantity})
	}
	if err != nil {
		s.logger.Error("failed to update item", zap.String("name", name), zap.Int("quantity", quantity), zap.Error(err))
		s.notify(models.NotificationError, MsgUpdateFailed)
		return fmt.Errorf("%w: set %q: %w", ErrWriteFailure, name, err)
	}

	s.refresh(ctx)
	s.notify(models.NotificationSuccess, MsgUpdated)
	return nil
}

func (s *Service) increment(ctx context.Context, name string, n int) error {
	if s.adjuster != nil {
		_, err := s.adjuster.Adjust(ctx, s.collection, name, n)
		return err
	}

	fields, ok, err := s.store.Get(ctx, s.collection, name)
	if err != nil {
		return err
	}
	quantity := n
	if ok {
		quantity = fields.Quantity + n
	}
	return s.store.Put(ctx, s.collection, name, models.Fields{Quantity: quantity})
}

func (s *Service) decrement(ctx context.Context, name string) (bool, error) {
	if s.adjuster != nil {
		res, err := s.adjuster.Adjust(ctx, s.collection, name, -1)
		return res.Existed, err
	}

	fields, ok, err := s.store.Get(ctx, s.collection, name)
	if err != nil || !ok {
		return false, err
	}
	if fields.Quantity <= 1 {
		return true, s.store.Delete(ctx, s.collection, name)
	}
	return true, s.store.Put(ctx, s.collection, name, models.Fields{Quantity: fields.Quantity - 1})
}

// refresh reloads after a mutation. A failed reload is logged and notified by List and
// the mutation's own notification replaces it.
func (s *Service) refresh(ctx context.Context) {
	if _, err := s.List(ctx); err != nil {
		s.logger.Warn("refresh after write failed", zap.Error(err))
	}
}

// Search filters the loaded inventory by a case-insensitive substring of the name. It
// never touches the store.
func (s *Service) Search(query string) []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FilterItems(s.items, query)
}

// Items returns a copy of the loaded inventory.
func (s *Service) Items() []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Find looks name up in the loaded inventory.
func (s *Service) Find(name string) (models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.Name == name {
			return item, true
		}
	}
	return models.Item{}, false
}

// SelectForDetails opens the details view for item.
func (s *Service) SelectForDetails(item models.Item) {
	s.transition(func(v models.ViewState) models.ViewState { return v.Select(item) })
}

// SelectByName opens the details view for a loaded item.
func (s *Service) SelectByName(name string) (models.Item, error) {
	item, ok := s.Find(name)
	if !ok {
		return models.Item{}, fmt.Errorf("%w: %q", models.ErrItemNotFound, name)
	}
	s.SelectForDetails(item)
	return item, nil
}

// ClearSelection closes the details view.
func (s *Service) ClearSelection() {
	s.transition(models.ViewState.ClearSelection)
}

// OpenForm shows the add form with its defaults.
func (s *Service) OpenForm() {
	s.transition(models.ViewState.OpenForm)
}

// CloseForm hides the add form and resets its fields.
func (s *Service) CloseForm() {
	s.transition(models.ViewState.CloseForm)
}

// SetFormInput keeps the add form fields in the page state.
func (s *Service) SetFormInput(name string, quantity int) {
	s.transition(func(v models.ViewState) models.ViewState { return v.WithFormInput(name, quantity) })
}

// SubmitForm adds the form input and closes the form, whatever the outcome.
func (s *Service) SubmitForm(ctx context.Context, name string, quantity int) error {
	defer s.CloseForm()
	return s.Add(ctx, name, quantity)
}

// SubmitFormInput submits the fields recorded by SetFormInput.
func (s *Service) SubmitFormInput(ctx context.Context) error {
	s.mu.RLock()
	name, quantity := s.view.FormName, s.view.FormQuantity
	s.mu.RUnlock()
	return s.SubmitForm(ctx, name, quantity)
}

// SetQuery updates the search box.
func (s *Service) SetQuery(query string) {
	s.transition(func(v models.ViewState) models.ViewState { return v.WithQuery(query) })
}

// ClearQuery empties the search box.
func (s *Service) ClearQuery() {
	s.transition(models.ViewState.ClearQuery)
}

// DismissNotification hides the current notification.
func (s *Service) DismissNotification() {
	s.transition(models.ViewState.DismissNotification)
}

// RequestRemoval asks for confirmation before removing a loaded item.
func (s *Service) RequestRemoval(name string) error {
	if _, ok := s.Find(name); !ok {
		return fmt.Errorf("%w: %q", models.ErrItemNotFound, name)
	}
	s.transition(func(v models.ViewState) models.ViewState { return v.RequestRemoval(name) })
	return nil
}

// CancelRemoval drops the pending removal without touching the store.
func (s *Service) CancelRemoval() {
	s.transition(models.ViewState.CancelRemoval)
}

// ConfirmRemoval removes the item awaiting confirmation.
func (s *Service) ConfirmRemoval(ctx context.Context) error {
	s.mu.Lock()
	name := s.view.PendingRemoval
	s.view = s.view.CancelRemoval()
	s.mu.Unlock()

	if name == "" {
		return ErrNoPendingRemoval
	}
	return s.Remove(ctx, name)
}

// View returns the presentation state with expired notifications dropped, and the items
// matching the current query.
func (s *Service) View() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.Expire(s.now())
	return Page{State: s.view, Items: models.FilterItems(s.items, s.view.Query)}
}

func (s *Service) notify(kind models.NotificationKind, message string) {
	at := s.now()
	s.transition(func(v models.ViewState) models.ViewState { return v.Notify(kind, message, at) })
}

func (s *Service) transition(fn func(models.ViewState) models.ViewState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = fn(s.view)
}

func cloneItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	return out
}

// Collection is the name of the store collection backing the inventory.
func (s *Service) Collection() string { return s.collection }
