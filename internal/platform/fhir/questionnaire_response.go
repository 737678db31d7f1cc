package fhir

type QuestionnaireResponseAnswer struct {
	ValueBoolean *bool    `json:"valueBoolean,omitempty"`
	ValueInteger *int     `json:"valueInteger,omitempty"`
	ValueDecimal *float64 `json:"valueDecimal,omitempty"`
	ValueString  *string  `json:"valueString,omitempty"`
}

type QuestionnaireResponseItem struct {
	LinkID string                        `json:"linkId"`
	Text   string                        `json:"text,omitempty"`
	Answer []QuestionnaireResponseAnswer `json:"answer,omitempty"`
}

type QuestionnaireResponseData struct {
	Status   string                      `json:"status"`
	Subject  *Reference                  `json:"subject,omitempty"`
	Author   *Reference                  `json:"author,omitempty"`
	Authored string                      `json:"authored,omitempty"`
	Item     []QuestionnaireResponseItem `json:"item,omitempty"`
}

type QuestionnaireResponse struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`
	QuestionnaireResponseData
}

func NewQuestionnaireResponse(id int64, meta *Meta, d QuestionnaireResponseData) *QuestionnaireResponse {
	return &QuestionnaireResponse{ResourceType: "QuestionnaireResponse", ID: formatID(id), Meta: meta, QuestionnaireResponseData: d}
}

func (q *QuestionnaireResponse) GetResourceType() string { return q.ResourceType }
func (q *QuestionnaireResponse) GetID() string           { return q.ID }
