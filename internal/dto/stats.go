package dto

// DashboardResponse admin overview
type DashboardResponse struct {
	TotalUsers        int64              `json:"total_users"`
	TotalSessions     int64              `json:"total_sessions"`
	ActiveSessions    int64              `json:"active_sessions"`
	CompletedSessions int64              `json:"completed_sessions"`
	AbandonedSessions int64              `json:"abandoned_sessions"`
	TotalEntries      int64              `json:"total_entries"`
	DescentTypes      int64              `json:"descent_types"`
	Rituals           int64              `json:"rituals"`
	RecentSessions    []AdminSessionRow  `json:"recent_sessions"`
	ByDescentType     []DescentTypeStats `json:"by_descent_type"`
	GeneratedAt       string             `json:"generated_at"`
}

// AdminSessionRow one row of the superuser session listing
type AdminSessionRow struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	DescentType     string `json:"descent_type"`
	Status          string `json:"status"`
	StartedAt       string `json:"started_at"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// DescentTypeStats per-type aggregate
type DescentTypeStats struct {
	DescentTypeID string  `json:"descent_type_id"`
	Name          string  `json:"name"`
	Sessions      int64   `json:"sessions"`
	Completed     int64   `json:"completed"`
	Abandoned     int64   `json:"abandoned"`
	Entries       int64   `json:"entries"`
	AvgEmotion    float64 `json:"avg_emotion"`
}
