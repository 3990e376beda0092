package model

// Audience is the target audience picked when deploying a survey.
type Audience string

const (
	AudienceExistingCustomers Audience = "Existing customers"
	AudienceNewUsers          Audience = "New users"
)

// Channel is the distribution method picked when deploying a survey.
type Channel string

const (
	ChannelEmail       Channel = "Email"
	ChannelSocialMedia Channel = "Social Media"
	ChannelWebsite     Channel = "Website"
)

// Valid reports whether a is one of the offered audiences.
func (a Audience) Valid() bool {
	return a == AudienceExistingCustomers || a == AudienceNewUsers
}

// Valid reports whether c is one of the offered channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSocialMedia, ChannelWebsite:
		return true
	}
	return false
}

// OptimizedSuffix is appended to the best variation by the optimization engine.
const OptimizedSuffix = " - Optimized"

// ParticipantRecord is one simulated respondent. Immutable once generated.
type ParticipantRecord struct {
	Variation       string  `json:"variation"`
	CompletionTime  int     `json:"completion_time"`
	ResponseQuality float64 `json:"response_quality"`
}

// Deployment captures the distribution choices made when a survey was deployed.
// Neither field influences the simulation or the analysis.
type Deployment struct {
	Audience     Audience `json:"audience"`
	Channel      Channel  `json:"channel"`
	Participants int      `json:"participants"`
}

// Survey is an A/B test definition together with its simulated responses.
type Survey struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Variations  []string            `json:"variations"`
	Responses   []ParticipantRecord `json:"responses,omitempty"`
	Deployment  *Deployment         `json:"deployment,omitempty"`
	Report      *AnalysisReport     `json:"report,omitempty"`
}

// Clone returns a copy whose variation list can be modified independently.
// Responses are shared since records are never mutated after generation.
func (s *Survey) Clone() *Survey {
	if s == nil {
		return nil
	}
	c := *s
	c.Variations = append([]string(nil), s.Variations...)
	if s.Deployment != nil {
		d := *s.Deployment
		c.Deployment = &d
	}
	return &c
}

// SurveySummary is the survey view returned by list/detail endpoints (no responses).
type SurveySummary struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Variations   []string    `json:"variations"`
	Participants int         `json:"participants"`
	Deployment   *Deployment `json:"deployment,omitempty"`
	Analyzed     bool        `json:"analyzed"`
}

// Summary builds the response-free view of a survey.
func (s *Survey) Summary() SurveySummary {
	variations := s.Variations
	if variations == nil {
		variations = []string{}
	}
	return SurveySummary{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		Variations:   variations,
		Participants: len(s.Responses),
		Deployment:   s.Deployment,
		Analyzed:     s.Report != nil,
	}
}
