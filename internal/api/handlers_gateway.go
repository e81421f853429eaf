// handlers_gateway.go - Live device value handlers
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plc-assistant/backend/internal/gateway"
	"github.com/plc-assistant/backend/internal/metrics"
	"github.com/plc-assistant/backend/internal/models"
)

// GatewayHandlerImpl implements the GatewayHandler interface
type GatewayHandlerImpl struct {
	reader DeviceReader
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(reader DeviceReader) GatewayHandler {
	return &GatewayHandlerImpl{reader: reader}
}

// HandleRead reads one device spec. Gateway failures are reported in the
// result body with a 200 status; only malformed requests are errors.
func (h *GatewayHandlerImpl) HandleRead(c echo.Context) error {
	metrics.ToolCalled("read_device")
	var req models.DeviceReadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	opts := gatewayOptions(req.Host, req.Port, req.TimeoutMs, req.Transport)
	return c.JSON(http.StatusOK, h.reader.Read(c.Request().Context(), req.Spec, opts))
}

// HandleReadBatch reads several device specs in one gateway call
func (h *GatewayHandlerImpl) HandleReadBatch(c echo.Context) error {
	metrics.ToolCalled("read_devices")
	var req models.BatchReadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	opts := gatewayOptions(req.Host, req.Port, req.TimeoutMs, req.Transport)
	return c.JSON(http.StatusOK, h.reader.ReadBatch(c.Request().Context(), req.Specs, opts))
}

func gatewayOptions(host string, port, timeoutMs int, transport string) gateway.Options {
	return gateway.Options{
		Host:      host,
		Port:      port,
		Timeout:   time.Duration(timeoutMs) * time.Millisecond,
		Transport: transport,
	}
}
