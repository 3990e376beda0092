package websocket

import (
	"github.com/stemsi/surveylab/internal/model"
	"github.com/stemsi/surveylab/internal/response"
	"github.com/stemsi/surveylab/internal/wizard"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionCreate      Action = "create"
	ActionSelect      Action = "select"
	ActionTitle       Action = "title"
	ActionDescription Action = "description"
	ActionDeploy      Action = "deploy"
	ActionReanalyze   Action = "reanalyze"
	ActionRestart     Action = "restart"
	ActionState       Action = "state"
	ActionPing        Action = "ping"
)

// WizardRequest is the single client message shape. Which fields matter
// depends on Action: survey_id for create/select, text for title and
// description, the deploy fields for deploy.
type WizardRequest struct {
	Action     Action         `json:"action"`
	SurveyID   string         `json:"survey_id,omitempty"`
	Text       string         `json:"text,omitempty"`
	Variations string         `json:"variations,omitempty"`
	Save       bool           `json:"save,omitempty"`
	Audience   model.Audience `json:"audience,omitempty"`
	Channel    model.Channel  `json:"channel,omitempty"`
}

// Event converts the request into a wizard event. ok is false for actions
// that are not wizard transitions (state, ping, unknown).
func (r *WizardRequest) Event() (ev wizard.Event, ok bool) {
	switch r.Action {
	case ActionCreate:
		return wizard.CreateSurvey{SurveyID: r.SurveyID}, true
	case ActionSelect:
		return wizard.SelectSurvey{SurveyID: r.SurveyID}, true
	case ActionTitle:
		return wizard.SaveTitle{Title: r.Text}, true
	case ActionDescription:
		return wizard.SaveDescription{Description: r.Text}, true
	case ActionDeploy:
		return wizard.Deploy{
			Variations: r.Variations,
			Save:       r.Save,
			Audience:   r.Audience,
			Channel:    r.Channel,
		}, true
	case ActionReanalyze:
		return wizard.Reanalyze{}, true
	case ActionRestart:
		return wizard.Restart{}, true
	default:
		return nil, false
	}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventReport Event = "report"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// StateResponse is sent after every accepted action and on request.
type StateResponse struct {
	Event   Event                `json:"event"`
	Session model.SessionView    `json:"session"`
	Survey  *model.SurveySummary `json:"survey,omitempty"`
}

// ReportResponse is sent when an action produced an analysis report.
type ReportResponse struct {
	Event   Event                 `json:"event"`
	Session model.SessionView     `json:"session"`
	Survey  *model.SurveySummary  `json:"survey,omitempty"`
	Report  *model.AnalysisReport `json:"report"`
}

type ErrorResponse struct {
	Event Event            `json:"event"`
	Code  response.ErrCode `json:"code"`
	Error string           `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
