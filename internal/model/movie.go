package model

// MaxMovieIDLength bounds external movie identifiers.
const MaxMovieIDLength = 64

// Movie holds catalog metadata for a single title.
// Field names follow the catalog's JSON so cached payloads round-trip as-is.
type Movie struct {
	IMDbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated,omitempty"`
	Released   string `json:"Released,omitempty"`
	Runtime    string `json:"Runtime,omitempty"`
	Genre      string `json:"Genre,omitempty"`
	Director   string `json:"Director,omitempty"`
	Actors     string `json:"Actors,omitempty"`
	Plot       string `json:"Plot,omitempty"`
	Poster     string `json:"Poster,omitempty"`
	IMDbRating string `json:"imdbRating,omitempty"`
	Type       string `json:"Type,omitempty"`
}

// MovieSummary is a single search hit.
type MovieSummary struct {
	IMDbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// SearchResult is one page of title search results.
type SearchResult struct {
	Query        string         `json:"query"`
	Page         int            `json:"page"`
	TotalResults int            `json:"total_results"`
	Movies       []MovieSummary `json:"movies"`
}

// ValidMovieID reports whether id is usable as an external movie identifier.
func ValidMovieID(id string) bool {
	return id != "" && len(id) <= MaxMovieIDLength
}
