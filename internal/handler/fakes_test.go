package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/reelist/reelist/internal/auth"
	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/service"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeAccountService struct {
	signUpInput service.SignUpInput
	signOutTok  string
	err         error
}

func (f *fakeAccountService) SignUp(_ context.Context, input service.SignUpInput) (*service.AuthResult, error) {
	f.signUpInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &service.AuthResult{
		User:      &model.User{ID: "user-1", Email: input.Email, Username: "ada", CreatedAt: testTime},
		Token:     "rls_abc123_0123456789abcdef0123456789abcdef",
		ExpiresAt: testTime.Add(time.Hour),
	}, nil
}

func (f *fakeAccountService) SignIn(_ context.Context, input service.SignInInput) (*service.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.AuthResult{
		User:      &model.User{ID: "user-1", Email: input.Email, Username: "ada", ListIDs: []string{"list-1"}, CreatedAt: testTime},
		Token:     "rls_abc123_0123456789abcdef0123456789abcdef",
		ExpiresAt: testTime.Add(time.Hour),
	}, nil
}

func (f *fakeAccountService) SignOut(_ context.Context, authCtx *model.AuthContext, token string) error {
	if authCtx == nil {
		return service.ErrUnauthorized
	}
	f.signOutTok = token
	return f.err
}

func (f *fakeAccountService) Profile(_ context.Context, userID string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.User{ID: userID, Email: "ada@example.com", Username: "ada", CreatedAt: testTime}, nil
}

type fakeMovieService struct {
	query string
	page  int
	err   error
}

func (f *fakeMovieService) Search(_ context.Context, query string, page int) (*model.SearchResult, error) {
	f.query, f.page = query, page
	if f.err != nil {
		return nil, f.err
	}
	return &model.SearchResult{
		Query:        query,
		Page:         page,
		TotalResults: 1,
		Movies:       []model.MovieSummary{{IMDbID: "tt0133093", Title: "The Matrix", Year: "1999", Type: "movie"}},
	}, nil
}

func (f *fakeMovieService) GetMovie(_ context.Context, id string) (*model.Movie, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id != "tt0133093" {
		return nil, service.ErrMovieNotFound
	}
	return &model.Movie{IMDbID: id, Title: "The Matrix", Year: "1999"}, nil
}

// fakeListService records the last call and answers from a fixed list.
type fakeListService struct {
	list     *model.List
	err      error
	viewer   string
	page     service.PageInput
	name     string
	update   service.UpdateListInput
	create   service.CreateListInput
	movieID  string
	deleted  string
	hydrated []*model.Movie
}

func newFakeListService() *fakeListService {
	return &fakeListService{list: &model.List{
		ID:         "list-1",
		OwnerID:    "user-1",
		Name:       "Favourites",
		Visibility: model.VisibilityPublic,
		Movies:     []string{"tt0133093"},
		CreatedAt:  testTime,
		UpdatedAt:  testTime,
	}}
}

func (f *fakeListService) CreateList(_ context.Context, input service.CreateListInput) (*model.List, error) {
	f.create = input
	if f.err != nil {
		return nil, f.err
	}
	l := *f.list
	l.Name = input.Name
	return &l, nil
}

func (f *fakeListService) GetList(_ context.Context, viewerID, id string) (*model.List, error) {
	f.viewer = viewerID
	if f.err != nil {
		return nil, f.err
	}
	if id != f.list.ID {
		return nil, service.ErrListNotFound
	}
	return f.list, nil
}

func (f *fakeListService) FindByName(_ context.Context, viewerID, name string, page service.PageInput) (*service.ListPage, error) {
	f.viewer, f.name, f.page = viewerID, name, page
	return f.pageResult()
}

func (f *fakeListService) PublicLists(_ context.Context, page service.PageInput) (*service.ListPage, error) {
	f.page = page
	return f.pageResult()
}

func (f *fakeListService) UserLists(_ context.Context, ownerID string, page service.PageInput) (*service.ListPage, error) {
	f.viewer, f.page = ownerID, page
	return f.pageResult()
}

func (f *fakeListService) UpdateList(_ context.Context, input service.UpdateListInput) (*model.List, error) {
	f.update = input
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeListService) DeleteList(_ context.Context, userID, id string) error {
	f.viewer, f.deleted = userID, id
	return f.err
}

func (f *fakeListService) AddMovie(_ context.Context, userID, _, movieID string) (*model.List, error) {
	f.viewer, f.movieID = userID, movieID
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeListService) RemoveMovie(_ context.Context, userID, _, movieID string) (*model.List, error) {
	f.viewer, f.movieID = userID, movieID
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeListService) ListMovies(_ context.Context, viewerID, _ string) (*service.HydratedList, error) {
	f.viewer = viewerID
	if f.err != nil {
		return nil, f.err
	}
	return &service.HydratedList{List: f.list, Movies: f.hydrated}, nil
}

func (f *fakeListService) pageResult() (*service.ListPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.ListPage{Lists: []*model.List{f.list}, NextCursor: "next", HasMore: true}, nil
}

func newRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.ContextWithAuth(r.Context(), &model.AuthContext{
		SessionID: "sess-1",
		UserID:    userID,
	}))
}
