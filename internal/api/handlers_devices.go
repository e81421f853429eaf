// handlers_devices.go - Per-device lookup handlers
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/plc-assistant/backend/internal/analysis"
	"github.com/plc-assistant/backend/internal/device"
	"github.com/plc-assistant/backend/internal/metrics"
	"github.com/plc-assistant/backend/internal/models"
)

// DeviceHandlerImpl implements the DeviceHandler interface
type DeviceHandlerImpl struct {
	analyzer     *analysis.ProgramAnalyzer
	contextLines int
}

// NewDeviceHandler creates a new device handler. contextLines is the
// block context used when the request does not give one.
func NewDeviceHandler(analyzer *analysis.ProgramAnalyzer, contextLines int) DeviceHandler {
	if contextLines < 0 {
		contextLines = analysis.DefaultContextLines
	}
	return &DeviceHandlerImpl{
		analyzer:     analyzer,
		contextLines: contextLines,
	}
}

type parseAddressResponse struct {
	device.Address
	Spec    string `json:"spec"`
	Display string `json:"display"`
}

type commentResponse struct {
	Device  string `json:"device"`
	Comment string `json:"comment"`
	Found   bool   `json:"found"`
}

type blocksResponse struct {
	Device  string                  `json:"device"`
	Context int                     `json:"context"`
	Blocks  []analysis.ProgramBlock `json:"blocks"`
}

type relatedResponse struct {
	Device  string   `json:"device"`
	Related []string `json:"related"`
}

type dataTypeResponse struct {
	Device   string                `json:"device"`
	DataType models.DeviceDataType `json:"dataType"`
}

// HandleParseAddress parses ?spec= into its device parts
func (h *DeviceHandlerImpl) HandleParseAddress(c echo.Context) error {
	metrics.ToolCalled("parse_address")
	addr := device.Parse(c.QueryParam("spec"))
	return c.JSON(http.StatusOK, parseAddressResponse{
		Address: addr,
		Spec:    addr.ToSpec(),
		Display: addr.Display(),
	})
}

// HandleGetComment returns the comment of :device. A device without a
// comment is not an error.
func (h *DeviceHandlerImpl) HandleGetComment(c echo.Context) error {
	metrics.ToolCalled("comment")
	addr, err := deviceParam(c)
	if err != nil {
		return err
	}
	comment := h.analyzer.Comment(addr.Class, addr.Address)
	return c.JSON(http.StatusOK, commentResponse{
		Device:  addr.Display(),
		Comment: comment,
		Found:   comment != "",
	})
}

// HandleGetBlocks returns the program context around every use of :device
func (h *DeviceHandlerImpl) HandleGetBlocks(c echo.Context) error {
	metrics.ToolCalled("program_blocks")
	addr, err := deviceParam(c)
	if err != nil {
		return err
	}

	contextLines := h.contextLines
	if raw := c.QueryParam("context"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("context")
		}
		contextLines = n
	}

	blocks := h.analyzer.Blocks(addr.Class, addr.Address, contextLines)
	if blocks == nil {
		blocks = []analysis.ProgramBlock{}
	}
	return c.JSON(http.StatusOK, blocksResponse{
		Device:  addr.Display(),
		Context: contextLines,
		Blocks:  blocks,
	})
}

// HandleGetRelated returns devices used next to :device
func (h *DeviceHandlerImpl) HandleGetRelated(c echo.Context) error {
	metrics.ToolCalled("related_devices")
	addr, err := deviceParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, relatedResponse{
		Device:  addr.Display(),
		Related: h.analyzer.RelatedDevices(addr.Class, addr.Address),
	})
}

// HandleGetDataType guesses what :device holds
func (h *DeviceHandlerImpl) HandleGetDataType(c echo.Context) error {
	metrics.ToolCalled("data_type")
	addr, err := deviceParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataTypeResponse{
		Device:   addr.Display(),
		DataType: h.analyzer.InferDeviceDataType(addr.Class, addr.Address),
	})
}

func deviceParam(c echo.Context) (device.Address, error) {
	raw := strings.TrimSpace(c.Param("device"))
	if raw == "" {
		return device.Address{}, NewValidationError("device")
	}
	return device.Parse(raw), nil
}
