package dto

// EntryInput journal entry fields shared by add, edit and continue.
// EmotionLevel is a pointer so a missing value can be told apart from zero.
type EntryInput struct {
	Content      string `json:"content"`
	EmotionLevel *int   `json:"emotion_level"`
	Reflection   string `json:"reflection"`
}

// EntryResponse entry view
type EntryResponse struct {
	ID           string `json:"id"`
	SessionID    string `json:"session_id"`
	Content      string `json:"content"`
	EmotionLevel int    `json:"emotion_level"`
	Reflection   string `json:"reflection"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
