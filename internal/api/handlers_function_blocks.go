// handlers_function_blocks.go - Function-block metadata handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plc-assistant/backend/internal/metrics"
	"github.com/plc-assistant/backend/internal/search"
	"github.com/plc-assistant/backend/internal/store"
)

// FunctionBlockHandlerImpl implements the FunctionBlockHandler interface
type FunctionBlockHandlerImpl struct {
	store *store.PlcDataStore
}

// NewFunctionBlockHandler creates a new function-block handler
func NewFunctionBlockHandler(s *store.PlcDataStore) FunctionBlockHandler {
	return &FunctionBlockHandlerImpl{store: s}
}

// HandleListFunctionBlocks returns the sorted names of every block
func (h *FunctionBlockHandlerImpl) HandleListFunctionBlocks(c echo.Context) error {
	names := h.store.FunctionBlockNames()
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"names": names,
		"count": len(names),
	})
}

// HandleGetFunctionBlock returns one block by name. An unknown name is a
// 404 that carries the closest known names.
func (h *FunctionBlockHandlerImpl) HandleGetFunctionBlock(c echo.Context) error {
	metrics.ToolCalled("function_block")
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}

	if block, ok := h.store.TryGetFunctionBlock(name); ok {
		return c.JSON(http.StatusOK, block)
	}

	suggestions := search.SuggestNames(name, h.store.FunctionBlockNames(), search.DefaultSuggestions)
	return NewNotFoundError("function block", name).WithSuggestions(suggestions)
}
