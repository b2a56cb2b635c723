package handlers

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"pulse_generator/internal/models"
	"pulse_generator/internal/pulse"

	"github.com/gin-gonic/gin"
)

//go:embed ui/index.html
var indexHTML []byte

// Plain-text replies of the panel endpoints.
const (
	msgParamsUpdated  = "Parameters updated."
	msgStopping       = "Stopping pulsing."
	msgAlreadyRunning = "Pulsing already in progress."
	msgConfigFailed   = "Failed to update parameters."
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
	statusOK        = "ok"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  pulse_generator.StatusMessage
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

func (h *Handler) index(c *gin.Context) {
	c.Data(http.StatusOK, contentTypeHTML, indexHTML)
}

// parseConfigQuery reads the optional configure parameters. A value that is not an
// integer counts as 0, so it is rejected like any other non-positive value.
func parseConfigQuery(c *gin.Context) models.ConfigUpdate {
	var u models.ConfigUpdate
	for _, f := range []struct {
		name string
		dst  **int
	}{
		{pulse.FieldWidth, &u.WidthMs},
		{pulse.FieldPeriod, &u.PeriodMs},
		{pulse.FieldNPulses, &u.Count},
		{pulse.FieldDelay, &u.ChannelDelayMs},
	} {
		raw, ok := c.GetQuery(f.name)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			v = 0
		}
		*f.dst = &v
	}
	return u
}

// @Summary      Set pulse parameters (panel)
// @Description  Any subset of width, period, npulses, delay. Every value must be an integer in 1..4294967295 and width < period.
// @Tags         panel
// @Produce      plain
// @Param        width    query  int  false  "Pulse width (ms)"
// @Param        period   query  int  false  "Pulse period (ms)"
// @Param        npulses  query  int  false  "Pulses per run"
// @Param        delay    query  int  false  "Generator delay relative to myopacer (ms)"
// @Success      200  {string}  string  "Parameters updated."
// @Failure      400  {string}  string  "Invalid width"
// @Router       /set [get]
func (h *Handler) setParams(c *gin.Context) {
	_, err := h.services.Pacer.UpdateConfig(c.Request.Context(), parseConfigQuery(c))
	if err != nil {
		var verr *pulse.ValidationError
		if errors.As(err, &verr) {
			c.String(http.StatusBadRequest, verr.Message)
			return
		}
		h.log.Errorw("pulse_config_update_failed", "err", err)
		c.String(http.StatusInternalServerError, msgConfigFailed)
		return
	}
	c.String(http.StatusOK, msgParamsUpdated)
}

// startReply renders per-channel start results as panel text. Any launch failure
// makes the whole reply a 500.
func startReply(results []models.ChannelStart) (int, string) {
	code := http.StatusOK
	var lines []string
	for _, r := range results {
		switch r.Outcome {
		case models.OutcomeStarted:
			lines = append(lines, fmt.Sprintf("Started %s pulsing.", r.Channel))
		case models.OutcomeFailed:
			code = http.StatusInternalServerError
			lines = append(lines, fmt.Sprintf("Failed to start %s.", r.Channel))
		}
	}
	if len(lines) == 0 {
		return code, msgAlreadyRunning
	}
	return code, strings.Join(lines, "\n")
}

// @Summary      Start pulsing (panel)
// @Description  Starts every idle channel. Channels already running are left alone.
// @Tags         panel
// @Produce      plain
// @Success      200  {string}  string  "Started Myopacer pulsing."
// @Failure      500  {string}  string  "Failed to start Generator."
// @Router       /start [get]
func (h *Handler) startPulsing(c *gin.Context) {
	results := h.services.Pacer.StartAll(c.Request.Context())
	h.logStartFailures(results)
	code, body := startReply(results)
	c.String(code, body)
}

// @Summary      Stop pulsing (panel)
// @Tags         panel
// @Produce      plain
// @Success      200  {string}  string  "Stopping pulsing."
// @Router       /stop [get]
func (h *Handler) stopPulsing(c *gin.Context) {
	h.services.Pacer.StopAll(c.Request.Context())
	c.String(http.StatusOK, msgStopping)
}

// @Summary      Read activity log
// @Tags         panel
// @Produce      plain
// @Success      200  {string}  string  "log text"
// @Router       /log [get]
func (h *Handler) readLog(c *gin.Context) {
	c.Data(http.StatusOK, contentTypeText, []byte(h.services.ActivityLog.Snapshot()))
}

func (h *Handler) logStartFailures(results []models.ChannelStart) {
	for _, r := range results {
		if r.Outcome == models.OutcomeFailed {
			h.log.Errorw("pulse_start_failed", "channel", r.Channel, "err", r.Err)
		}
	}
}
