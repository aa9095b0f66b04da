package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	repo "github.com/mamadbah2/pantry/internal/repository/sheets"
)

const (
	dateLayout          = "2006-01-02"
	inventoryWriteRange = "Inventory!A:C"
)

// ErrExportDisabled is returned when no spreadsheet was configured.
var ErrExportDisabled = errors.New("snapshot export disabled")

// InventorySource reloads the current inventory without touching the page state.
type InventorySource interface {
	Load(ctx context.Context) ([]models.Item, error)
}

// Service builds inventory summaries and exports snapshots.
type Service struct {
	repo      repo.Repository
	threshold int
	logger    *zap.Logger
}

// NewService wires a new reporting service instance. repository may be nil, which turns
// snapshot exports off.
func NewService(repository repo.Repository, lowStockThreshold int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, threshold: lowStockThreshold, logger: logger}
}

// Summarize totals the items and collects those at or below the low stock threshold,
// lowest first.
func (s *Service) Summarize(items []models.Item) models.InventorySummary {
	summary := models.InventorySummary{Threshold: s.threshold, LowStock: []models.Item{}}
	for _, item := range items {
		summary.TotalItems++
		summary.TotalUnits += item.Quantity
		if item.Quantity <= s.threshold {
			summary.LowStock = append(summary.LowStock, item)
		}
	}
	sort.SliceStable(summary.LowStock, func(i, j int) bool {
		return summary.LowStock[i].Quantity < summary.LowStock[j].Quantity
	})
	return summary
}

// FormatSummary renders a summary as a short chat message.
func FormatSummary(summary models.InventorySummary, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pantry summary (%s): %d items, %d units.", at.Format(dateLayout), summary.TotalItems, summary.TotalUnits)
	if summary.TotalItems == 0 {
		b.WriteString(" The pantry is empty.")
		return b.String()
	}
	if len(summary.LowStock) == 0 {
		b.WriteString(" Nothing is running low.")
		return b.String()
	}
	fmt.Fprintf(&b, "\nRunning low (<= %d):", summary.Threshold)
	for _, item := range summary.LowStock {
		fmt.Fprintf(&b, "\n- %s: %d", item.DisplayName(), item.Quantity)
	}
	return b.String()
}

// DailyReport refreshes the inventory from src and formats its summary.
func (s *Service) DailyReport(ctx context.Context, src InventorySource, at time.Time) (string, []models.Item, error) {
	items, err := src.Load(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load inventory: %w", err)
	}
	return FormatSummary(s.Summarize(items), at), items, nil
}

// ExportSnapshot appends one date,name,quantity row per item.
func (s *Service) ExportSnapshot(ctx context.Context, items []models.Item, at time.Time) error {
	if s.repo == nil {
		return ErrExportDisabled
	}

	date := at.Format(dateLayout)
	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{date, item.Name, item.Quantity})
	}

	if err := s.repo.AppendRows(ctx, inventoryWriteRange, rows); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	s.logger.Info("inventory snapshot exported", zap.Int("items", len(items)), zap.String("date", date))
	return nil
}

// ExportEnabled reports whether a spreadsheet is configured.
func (s *Service) ExportEnabled() bool { return s.repo != nil }
