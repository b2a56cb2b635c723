package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	pg "pulse_generator"
	"pulse_generator/internal/models"
	"pulse_generator/internal/pulse"
	"pulse_generator/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusUpdated  = "updated"
	statusStarted  = "started"
	statusPartial  = "partial"
	statusStopping = "stopping"

	errInvalidBodyPref = "invalid body: "
	errFromInvalid     = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid       = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errListEvents      = "failed to load events"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// @Summary      Pulse generator status
// @Description  Current configuration and the state of both channels.
// @Tags         pacer
// @Produce      json
// @Success      200  {object}  models.PacerStatus
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Status(c.Request.Context()))
}

// @Summary      Update pulse parameters
// @Description  Omitted fields keep their value. The update is applied as a whole or not at all.
// @Tags         pacer
// @Accept       json
// @Produce      json
// @Param        body  body      pulse_generator.ConfigRequest  true  "Parameters"
// @Success      200   {object}  pulse_generator.ConfigResponse
// @Failure      400   {object}  pulse_generator.ErrorResponse
// @Router       /api/v1/config [post]
func (h *Handler) updateConfig(c *gin.Context) {
	var req pg.ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pg.ErrorResponse{Error: errInvalidBodyPref + err.Error()})
		return
	}
	cfg, err := h.services.Pacer.UpdateConfig(c.Request.Context(), models.ConfigUpdate{
		WidthMs:        req.Width,
		PeriodMs:       req.Period,
		Count:          req.NPulses,
		ChannelDelayMs: req.Delay,
	})
	if err != nil {
		var verr *pulse.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, pg.ErrorResponse{Error: verr.Message, Field: verr.Field})
			return
		}
		h.log.Errorw("pulse_config_update_failed", "err", err)
		c.JSON(http.StatusInternalServerError, pg.ErrorResponse{Error: msgConfigFailed})
		return
	}
	c.JSON(http.StatusOK, pg.ConfigResponse{Status: statusUpdated, Config: cfg})
}

// @Summary      Start pulsing
// @Description  Starts every idle channel; 500 when a channel could not be launched.
// @Tags         pacer
// @Produce      json
// @Success      200  {object}  pulse_generator.StartResponse
// @Failure      500  {object}  pulse_generator.StartResponse
// @Router       /api/v1/start [post]
func (h *Handler) startAPI(c *gin.Context) {
	results := h.services.Pacer.StartAll(c.Request.Context())
	h.logStartFailures(results)

	code, status := http.StatusOK, statusStarted
	for _, r := range results {
		if r.Outcome == models.OutcomeFailed {
			code, status = http.StatusInternalServerError, statusPartial
		}
	}
	c.JSON(code, pg.StartResponse{Status: status, Channels: results})
}

// @Summary      Stop pulsing
// @Description  Requests cancellation on both channels; runs end after their in-flight pulse.
// @Tags         pacer
// @Produce      json
// @Success      200  {object}  pulse_generator.StatusMessage
// @Router       /api/v1/stop [post]
func (h *Handler) stopAPI(c *gin.Context) {
	h.services.Pacer.StopAll(c.Request.Context())
	c.JSON(http.StatusOK, pg.StatusMessage{Status: statusStopping})
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List events
// @Description  Structured history of configuration changes and runs. 'to' given as a date covers that whole day.
// @Tags         events
// @Produce      json
// @Param        from     query  string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to       query  string  false  "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        type     query  string  false  "Event type"  Enums(CONFIG_UPDATE,CONFIG_REJECTED,RUN_START,RUN_COMPLETE,RUN_CANCELLED,RUN_FAILED,START_FAILED,STOP_REQUESTED)
// @Param        channel  query  string  false  "Channel"     Enums(Myopacer,Generator)
// @Success      200  {object}  pulse_generator.EventsResponse
// @Failure      400  {object}  pulse_generator.ErrorResponse
// @Failure      500  {object}  pulse_generator.ErrorResponse
// @Router       /api/v1/events [get]
func (h *Handler) getEvents(c *gin.Context) {
	var (
		f   = service.LogFilter{Type: c.Query("type"), Channel: c.Query("channel")}
		err error
	)
	if qs := c.Query("from"); qs != "" {
		if f.From, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, pg.ErrorResponse{Error: errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		if f.To, err = parseQueryTime(qs); err != nil {
			c.JSON(http.StatusBadRequest, pg.ErrorResponse{Error: errToInvalid})
			return
		}
		if isDateOnly(qs) {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond)
		}
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		if service.IsFilterError(err) {
			c.JSON(http.StatusBadRequest, pg.ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Errorw("events_list_failed", "err", err, "filter", f)
		c.JSON(http.StatusInternalServerError, pg.ErrorResponse{Error: errListEvents})
		return
	}
	c.JSON(http.StatusOK, pg.EventsResponse{Count: len(events), Events: events})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q, expected RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}
