package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/inventory"
)

// InventoryController is the inventory page surface exposed over HTTP.
type InventoryController interface {
	List(ctx context.Context) ([]models.Item, error)
	Search(query string) []models.Item
	Find(name string) (models.Item, bool)
	Set(ctx context.Context, name string, quantity int) error
	Add(ctx context.Context, name string, incrementBy int) error
	Remove(ctx context.Context, name string) error
	SubmitForm(ctx context.Context, name string, quantity int) error
	SubmitFormInput(ctx context.Context) error
	SetFormInput(name string, quantity int)

	View() inventory.Page
	OpenForm()
	CloseForm()
	SelectByName(name string) (models.Item, error)
	ClearSelection()
	SetQuery(query string)
	ClearQuery()
	RequestRemoval(name string) error
	ConfirmRemoval(ctx context.Context) error
	CancelRemoval()
	DismissNotification()
}

// Summarizer builds the inventory summary for /api/summary.
type Summarizer interface {
	Summarize(items []models.Item) models.InventorySummary
}

// InventoryHandler serves the inventory page API.
type InventoryHandler struct {
	inv        InventoryController
	summarizer Summarizer
	logger     *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(inv InventoryController, summarizer Summarizer, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{inv: inv, summarizer: summarizer, logger: logger}
}

// ListItems reloads the inventory and filters it by the q query parameter.
func (h *InventoryHandler) ListItems(c *gin.Context) {
	if _, err := h.inv.List(c.Request.Context()); err != nil {
		h.writeError(c, err, inventory.MsgFetchFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.inv.Search(c.Query("q"))})
}

// AddItem submits the add form. An omitted quantity adds one unit.
func (h *InventoryHandler) AddItem(c *gin.Context) {
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid add payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := h.inv.SubmitForm(c.Request.Context(), req.Name, quantity); err != nil {
		h.writeError(c, err, inventory.MsgAddFailed)
		return
	}
	c.JSON(http.StatusCreated, h.inv.View())
}

// GetItem returns one loaded item.
func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, ok := h.inv.Find(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// SetItem overwrites the quantity of an item.
func (h *InventoryHandler) SetItem(c *gin.Context) {
	var req models.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid set payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.inv.Set(c.Request.Context(), c.Param("name"), *req.Quantity); err != nil {
		h.writeError(c, err, inventory.MsgUpdateFailed)
		return
	}
	c.JSON(http.StatusOK, h.inv.View())
}

// Increment adds one unit to an item.
func (h *InventoryHandler) Increment(c *gin.Context) {
	if err := h.inv.Add(c.Request.Context(), c.Param("name"), 1); err != nil {
		h.writeError(c, err, inventory.MsgAddFailed)
		return
	}
	c.JSON(http.StatusOK, h.inv.View())
}

// Decrement takes one unit from an item. It requires confirm=true.
func (h *InventoryHandler) Decrement(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusConflict, gin.H{"error": "removal must be confirmed with confirm=true"})
		return
	}

	if err := h.inv.Remove(c.Request.Context(), c.Param("name")); err != nil {
		h.writeError(c, err, inventory.MsgRemoveFailed)
		return
	}
	c.JSON(http.StatusOK, h.inv.View())
}

// Summary totals the freshly loaded inventory.
func (h *InventoryHandler) Summary(c *gin.Context) {
	items, err := h.inv.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err, inventory.MsgFetchFailed)
		return
	}
	c.JSON(http.StatusOK, h.summarizer.Summarize(items))
}

// GetView returns the page state and the items matching the current query.
func (h *InventoryHandler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.inv.View())
}

func (h *InventoryHandler) OpenForm(c *gin.Context) {
	h.inv.OpenForm()
	c.JSON(http.StatusOK, h.inv.View())
}

func (h *InventoryHandler) CloseForm(c *gin.Context) {
	h.inv.CloseForm()
	c.JSON(http.StatusOK, h.inv.View())
}

// SetFormInput stores the add form fields.
func (h *InventoryHandler) SetFormInput(c *gin.Context) {
	var req models.FormInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.inv.SetFormInput(req.Name, req.Quantity)
	c.JSON(http.StatusOK, h.inv.View())
}

// SubmitForm adds the stored form fields and closes the form.
func (h *InventoryHandler) SubmitForm(c *gin.Context) {
	if err := h.inv.SubmitFormInput(c.Request.Context()); err != nil {
		h.writeError(c, err, inventory.MsgAddFailed)
		return
	}
	c.JSON(http.StatusCreated, h.inv.View())
}

// SelectDetails opens the details view for a loaded item.
func (h *InventoryHandler) SelectDetails(c *gin.Context) {
	if _, err := h.inv.SelectByName(c.Param("name")); err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, h.inv.View())
}

func (h *InventoryHandler) ClearDetails(c *gin.Context) {
	h.inv.ClearSelection()
	c.JSON(http.StatusOK, h.inv.View())
}

// SetQuery updates the search box.
func (h *InventoryHandler) SetQuery(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.inv.SetQuery(req.Query)
	c.JSON(http.StatusOK, h.inv.View())
}

func (h *InventoryHandler) ClearQuery(c *gin.Context) {
	h.inv.ClearQuery()
	c.JSON(http.StatusOK, h.inv.View())
}

// RequestRemoval asks for confirmation before removing a unit of an item.
func (h *InventoryHandler) RequestRemoval(c *gin.Context) {
	if err := h.inv.RequestRemoval(c.Param("name")); err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, h.inv.View())
}

// ConfirmRemoval removes the item awaiting confirmation.
func (h *InventoryHandler) ConfirmRemoval(c *gin.Context) {
	if err := h.inv.ConfirmRemoval(c.Request.Context()); err != nil {
		h.writeError(c, err, inventory.MsgRemoveFailed)
		return
	}
	c.JSON(http.StatusOK, h.inv.View())
}

func (h *InventoryHandler) CancelRemoval(c *gin.Context) {
	h.inv.CancelRemoval()
	c.JSON(http.StatusOK, h.inv.View())
}

func (h *InventoryHandler) DismissNotification(c *gin.Context) {
	h.inv.DismissNotification()
	c.JSON(http.StatusOK, h.inv.View())
}

// writeError maps controller errors to statuses. Store failures carry the notification
// text rather than the backend error.
func (h *InventoryHandler) writeError(c *gin.Context, err error, failureMsg string) {
	switch {
	case errors.Is(err, models.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrNoPendingRemoval):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrFetchFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": inventory.MsgFetchFailed})
	case errors.Is(err, inventory.ErrWriteFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": failureMsg})
	default:
		h.logger.Error("unexpected inventory error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
