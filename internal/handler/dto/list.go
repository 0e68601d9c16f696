package dto

import (
	"time"

	"github.com/reelist/reelist/internal/model"
)

// CreateListRequest is the body of POST /lists.
type CreateListRequest struct {
	Name       string   `json:"name"`
	Visibility string   `json:"visibility,omitempty"`
	Movies     []string `json:"movies,omitempty"`
}

// UpdateListRequest is the body of PATCH /lists/{id}. Absent fields are left unchanged.
type UpdateListRequest struct {
	Name       *string `json:"name,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
}

// AddMovieRequest is the body of POST /lists/{id}/movies.
type AddMovieRequest struct {
	MovieID string `json:"movie_id"`
}

// ListResponse represents a list in API responses.
type ListResponse struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"name"`
	Visibility string    `json:"visibility"`
	Movies     []string  `json:"movies"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListListResponse represents a paginated set of lists.
type ListListResponse struct {
	Data       []ListResponse `json:"data"`
	Pagination *Pagination    `json:"pagination"`
}

// ListMoviesResponse is a list with metadata for each movie.
// Movies is index-aligned with the list's ids; unavailable titles are null.
type ListMoviesResponse struct {
	List   ListResponse   `json:"list"`
	Movies []*model.Movie `json:"movies"`
}

// ToListResponse converts a List model to ListResponse.
func ToListResponse(list *model.List) ListResponse {
	movies := list.Movies
	if movies == nil {
		movies = []string{}
	}
	return ListResponse{
		ID:         list.ID,
		OwnerID:    list.OwnerID,
		Name:       list.Name,
		Visibility: string(list.Visibility),
		Movies:     movies,
		CreatedAt:  list.CreatedAt,
		UpdatedAt:  list.UpdatedAt,
	}
}

// ToListListResponse converts a page of lists.
func ToListListResponse(lists []*model.List, nextCursor string, hasMore bool) *ListListResponse {
	data := make([]ListResponse, len(lists))
	for i, list := range lists {
		data[i] = ToListResponse(list)
	}
	return &ListListResponse{
		Data: data,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}

// ToListMoviesResponse converts a hydrated list.
func ToListMoviesResponse(list *model.List, movies []*model.Movie) *ListMoviesResponse {
	if movies == nil {
		movies = []*model.Movie{}
	}
	return &ListMoviesResponse{
		List:   ToListResponse(list),
		Movies: movies,
	}
}
