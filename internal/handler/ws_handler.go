package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveylab/internal/metrics"
	"github.com/stemsi/surveylab/internal/middleware"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/service"
	ws "github.com/stemsi/surveylab/internal/websocket"
	"github.com/stemsi/surveylab/internal/wizard"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler drives the wizard over a WebSocket: one client message per
// action, answered by a state, report or error event.
type WSHandler struct {
	wizardService *service.WizardService
	limiter       *middleware.PipelineLimiter
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. limiter is the same instance that
// guards the REST deploy and reanalyze routes.
func NewWSHandler(wizardService *service.WizardService, limiter *middleware.PipelineLimiter, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		wizardService: wizardService,
		limiter:       limiter,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// WizardStream godoc
// WS /ws/v1/wizard?token=
// Upgrades to WebSocket and processes wizard actions until the client leaves
// or the session ends.
func (h *WSHandler) WizardStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(ws.MaxMessageSize)

	metrics.ActiveWSConnections.Inc()
	defer metrics.ActiveWSConnections.Dec()

	sessionID := claims.SessionID()
	wsLog := h.log.With().
		Str("session_id", sessionID).
		Str("username", claims.Username).
		Logger()
	wsLog.Info().Msg("Wizard client connected")

	for {
		var msg ws.WizardRequest
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if !h.handleMessage(c, conn, wsLog, sessionID, &msg) {
			return
		}
	}
}

// handleMessage processes one client message. It returns false when the
// connection should be closed.
func (h *WSHandler) handleMessage(c *gin.Context, conn *websocket.Conn, log zerolog.Logger, sessionID string, msg *ws.WizardRequest) bool {
	ctx := c.Request.Context()

	switch msg.Action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}) == nil

	case ws.ActionState:
		sess, err := h.wizardService.Session(ctx, sessionID)
		if err != nil {
			return h.writeFailure(conn, log, err)
		}
		state := ws.StateResponse{Event: ws.EventState, Session: sess.View()}
		if sv, ok := sess.ActiveSurvey(); ok {
			sum := sv.Summary()
			state.Survey = &sum
		}
		return ws.WriteTyped(conn, state) == nil
	}

	ev, ok := msg.Event()
	if !ok {
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		return ws.WriteError(conn, response.ErrValidation) == nil
	}

	if runsPipeline(ev) && !h.limiter.Allow(sessionID) {
		log.Info().Str("action", string(msg.Action)).Msg("Pipeline run throttled")
		return ws.WriteError(conn, response.ErrRateLimited) == nil
	}

	res, err := h.wizardService.Apply(ctx, sessionID, ev)
	if err != nil {
		return h.writeFailure(conn, log, err)
	}

	out := res.Response()
	if out.Report != nil {
		return ws.WriteTyped(conn, ws.ReportResponse{
			Event:   ws.EventReport,
			Session: out.Session,
			Survey:  out.Survey,
			Report:  out.Report,
		}) == nil
	}
	return ws.WriteTyped(conn, ws.StateResponse{
		Event:   ws.EventState,
		Session: out.Session,
		Survey:  out.Survey,
	}) == nil
}

func runsPipeline(ev wizard.Event) bool {
	switch ev.(type) {
	case wizard.Deploy, wizard.Reanalyze:
		return true
	}
	return false
}

// writeFailure reports err to the client. A vanished session ends the stream.
func (h *WSHandler) writeFailure(conn *websocket.Conn, log zerolog.Logger, err error) bool {
	_, code := classify(err)
	if code == response.ErrInternal {
		log.Error().Err(err).Msg("Wizard action failed")
	}
	if werr := ws.WriteError(conn, code); werr != nil {
		return false
	}
	return !errors.Is(err, repository.ErrSessionNotFound)
}
