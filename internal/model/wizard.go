package model

// LoginRequest is the payload for user authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

// CreateSurveyRequest starts building a new survey under the given id.
type CreateSurveyRequest struct {
	SurveyID string `json:"survey_id" binding:"required,notblank,max=64"`
}

// SelectSurveyRequest picks an existing survey.
type SelectSurveyRequest struct {
	SurveyID string `json:"survey_id" binding:"required,notblank,max=64"`
}

// TitleRequest confirms the survey title.
type TitleRequest struct {
	Title string `json:"title" binding:"required,notblank,max=255"`
}

// DescriptionRequest confirms the survey description.
type DescriptionRequest struct {
	Description string `json:"description" binding:"required,notblank,max=4000"`
}

// DeployRequest is submitted from the variations step. Variations are only
// stored when Save is set; deployment happens either way.
type DeployRequest struct {
	Variations string   `json:"variations" binding:"max=4000"`
	Save       bool     `json:"save"`
	Audience   Audience `json:"audience" binding:"omitempty,oneof='Existing customers' 'New users'"`
	Channel    Channel  `json:"channel" binding:"omitempty,oneof=Email 'Social Media' Website"`
}

// WizardResponse is returned by every wizard action.
type WizardResponse struct {
	Session SessionView     `json:"session"`
	Survey  *SurveySummary  `json:"survey,omitempty"`
	Report  *AnalysisReport `json:"report,omitempty"`
}
