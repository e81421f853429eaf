// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/plc-assistant/backend/internal/gateway"
	"github.com/plc-assistant/backend/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
	HandleStoreStats(c echo.Context) error
}

// DeviceHandler answers questions about a single device
type DeviceHandler interface {
	HandleParseAddress(c echo.Context) error
	HandleGetComment(c echo.Context) error
	HandleGetBlocks(c echo.Context) error
	HandleGetRelated(c echo.Context) error
	HandleGetDataType(c echo.Context) error
}

// AnalysisHandler runs whole-store analyses driven by free text
type AnalysisHandler interface {
	HandleTraceFaults(c echo.Context) error
	HandleSearchComments(c echo.Context) error
	HandleReason(c echo.Context) error
}

// FunctionBlockHandler serves imported function-block metadata
type FunctionBlockHandler interface {
	HandleListFunctionBlocks(c echo.Context) error
	HandleGetFunctionBlock(c echo.Context) error
}

// GatewayHandler proxies live-value reads to the PLC gateway
type GatewayHandler interface {
	HandleRead(c echo.Context) error
	HandleReadBatch(c echo.Context) error
}

// ImportHandler handles file upload and asynchronous import jobs
type ImportHandler interface {
	HandleStartImport(c echo.Context) error
	HandleListImports(c echo.Context) error
	HandleGetImport(c echo.Context) error
	HandleCancelImport(c echo.Context) error
	HandleListFiles(c echo.Context) error
}

// DeviceReader is the part of the gateway client the API uses
type DeviceReader interface {
	Read(ctx context.Context, spec string, opts gateway.Options) models.DeviceReadResult
	ReadBatch(ctx context.Context, specs []string, opts gateway.Options) models.BatchReadResult
}
