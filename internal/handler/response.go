package handler

import (
	"time"

	"github.com/amaumene/showlink/internal/domain"
)

type showResponse struct {
	ID          int64     `json:"id"`
	TraktID     int64     `json:"trakt_id"`
	Slug        string    `json:"slug,omitempty"`
	IMDB        string    `json:"imdb,omitempty"`
	TMDB        int64     `json:"tmdb,omitempty"`
	TVDB        int64     `json:"tvdb,omitempty"`
	Title       string    `json:"title"`
	Year        int64     `json:"year,omitempty"`
	Overview    string    `json:"overview,omitempty"`
	Status      string    `json:"status,omitempty"`
	Placeholder bool      `json:"placeholder"`
	Tracked     bool      `json:"tracked"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type relatedShowResponse struct {
	OrderIndex int          `json:"order_index"`
	Show       showResponse `json:"show"`
}

type addShowRequest struct {
	TraktID int64 `json:"trakt_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newShowResponse(show *domain.Show) showResponse {
	return showResponse{
		ID:          show.ID,
		TraktID:     show.TraktID,
		Slug:        show.Slug,
		IMDB:        show.IMDB,
		TMDB:        show.TMDB,
		TVDB:        show.TVDB,
		Title:       show.Title,
		Year:        show.Year,
		Overview:    show.Overview,
		Status:      show.Status,
		Placeholder: show.Placeholder,
		Tracked:     show.Tracked,
		UpdatedAt:   show.UpdatedAt,
	}
}

func newRelatedResponse(items []domain.RelatedShowsListItem) []relatedShowResponse {
	out := make([]relatedShowResponse, 0, len(items))
	for i := range items {
		out = append(out, relatedShowResponse{
			OrderIndex: items[i].Entry.OrderIndex,
			Show:       newShowResponse(&items[i].Show),
		})
	}
	return out
}
