package models

// ErrorResponse - стандартное тело ответа об ошибке.
// Details заполняется только в development окружении.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AnalyzeResponse - успешный ответ /analyze.
type AnalyzeResponse struct {
	Success  bool           `json:"success"`
	StoryID  string         `json:"storyId"`
	Analysis *StoryAnalysis `json:"analysis"`
}

// VideoResponse - успешный ответ /generate-video.
type VideoResponse struct {
	Success   bool   `json:"success"`
	VideoURL  string `json:"videoUrl"`
	RequestID string `json:"requestId"`
	Duration  string `json:"duration"`
	Status    string `json:"status"`
}

// VideoTaskAccepted возвращается при асинхронной постановке задачи.
type VideoTaskAccepted struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
}
