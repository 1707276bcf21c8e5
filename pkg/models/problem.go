package models

// APIProblem represents an RFC 7807 Problem Details response for Swagger docs.
// Handlers encode it for every 4xx/5xx reply.
type APIProblem struct {
	Type     string `json:"type" example:"https://qualitywatch.dev/problems/Not Found"`
	Title    string `json:"title" example:"Not Found"`
	Status   int    `json:"status" example:"404"`
	Detail   string `json:"detail,omitempty" example:"alert not found"`
	Instance string `json:"instance,omitempty" example:"/api/v1/alerts/6f1c7a52-9d1b-5c8e-a1f4-2b9e0d3c4a11"`
}
