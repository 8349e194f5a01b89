package service

import (
	"time"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toEntryResponse(e *model.Entry) *dto.EntryResponse {
	return &dto.EntryResponse{
		ID:           e.EntryID,
		SessionID:    e.SessionID,
		Content:      e.Content,
		EmotionLevel: e.EmotionLevel,
		Reflection:   e.Reflection,
		CreatedAt:    formatTime(e.CreatedAt),
		UpdatedAt:    formatTime(e.UpdatedAt),
	}
}

func toEntryResponses(entries []model.Entry) []dto.EntryResponse {
	result := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toEntryResponse(&entries[i]))
	}
	return result
}

func toSessionResponse(s *model.DescentSession, duration time.Duration) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:              s.SessionID,
		Status:          string(s.Status),
		StartedAt:       formatTime(s.StartedAt),
		CompletedAt:     formatTimePtr(s.CompletedAt),
		AbandonedAt:     formatTimePtr(s.AbandonedAt),
		Notes:           s.Notes,
		DurationSeconds: int64(duration / time.Second),
	}
	if s.DescentType != nil {
		resp.DescentType = &dto.DescentTypeBrief{
			ID:       s.DescentType.DescentTypeID,
			Name:     s.DescentType.Name,
			Category: string(s.DescentType.Category),
		}
	}
	return resp
}

func toDescentTypeResponse(dt *model.DescentType) *dto.DescentTypeResponse {
	return &dto.DescentTypeResponse{
		ID:          dt.DescentTypeID,
		Name:        dt.Name,
		Description: dt.Description,
		Category:    string(dt.Category),
		IsActive:    dt.IsActive,
		CreatedAt:   formatTime(dt.CreatedAt),
		UpdatedAt:   formatTime(dt.UpdatedAt),
	}
}

func toRitualResponse(r *model.Ritual) *dto.RitualResponse {
	return &dto.RitualResponse{
		ID:            r.RitualID,
		DescentTypeID: r.DescentTypeID,
		Name:          r.Name,
		Description:   r.Description,
		Instructions:  r.Instructions,
		Phase:         string(r.Phase),
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.UserID,
		Username:    u.Username,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   formatTime(u.CreatedAt),
	}
}
