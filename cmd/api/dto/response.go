package dto

// ErrorResponseDTO는 공통 에러 응답 형식이다.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"topic is required"`
}

// MessageResponseDTO는 단순 메시지 응답 형식이다.
type MessageResponseDTO struct {
	Message string `json:"message" example:"article updated"`
}

// PipelineErrorDTO is returned when a synchronous run aborts.
// Stage is the pipeline state the run stopped in.
type PipelineErrorDTO struct {
	Error  string `json:"error" example:"no sources found"`
	Stage  string `json:"stage" example:"SYNTHESIZING"`
	Reason string `json:"reason" example:"synthesis failed"`
}
