package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/reelist/reelist/internal/model"
)

// Common errors for list repository operations.
var (
	ErrListNotFound = errors.New("list not found")
)

const listColumns = `id, owner_id, name, visibility, movies, created_at, updated_at`

// ListFilter narrows ListLists with equality filters. Empty fields are ignored.
type ListFilter struct {
	OwnerID    string
	Visibility model.Visibility
	Name       string
	// VisibleTo restricts results to public lists plus lists owned by this user.
	VisibleTo string
}

// CreateList inserts a list and appends its ID to the owner's profile in one transaction.
func (r *Repository) CreateList(ctx context.Context, list *model.List) error {
	movies := list.Movies
	if movies == nil {
		movies = []string{}
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO lists (id, owner_id, name, visibility, movies, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			list.ID,
			list.OwnerID,
			list.Name,
			string(list.Visibility),
			movies,
			list.CreatedAt,
			list.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create list: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE users SET list_ids = array_append(list_ids, $1) WHERE id = $2
		`, list.ID, list.OwnerID)
		if err != nil {
			return fmt.Errorf("failed to link list to user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

// GetListByID retrieves a list by its ID.
func (r *Repository) GetListByID(ctx context.Context, id string) (*model.List, error) {
	query := `SELECT ` + listColumns + ` FROM lists WHERE id = $1`

	list, err := scanList(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get list by ID: %w", err)
	}

	return list, nil
}

// ListLists retrieves a page of lists, newest first.
func (r *Repository) ListLists(ctx context.Context, filter ListFilter, cursor string, limit int) ([]*model.List, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `SELECT ` + listColumns + ` FROM lists WHERE TRUE`
	args := []any{}
	argIndex := 1

	if filter.OwnerID != "" {
		query += fmt.Sprintf(" AND owner_id = $%d", argIndex)
		args = append(args, filter.OwnerID)
		argIndex++
	}

	if filter.Visibility != "" {
		query += fmt.Sprintf(" AND visibility = $%d", argIndex)
		args = append(args, string(filter.Visibility))
		argIndex++
	}

	if filter.Name != "" {
		query += fmt.Sprintf(" AND name = $%d", argIndex)
		args = append(args, filter.Name)
		argIndex++
	}

	if filter.VisibleTo != "" {
		query += fmt.Sprintf(" AND (visibility = 'public' OR owner_id = $%d)", argIndex)
		args = append(args, filter.VisibleTo)
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists := make([]*model.List, 0, limit)
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating lists: %w", err)
	}

	var nextCursor string
	if len(lists) > limit {
		lists = lists[:limit]
		last := lists[len(lists)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return lists, nextCursor, nil
}

// UpdateList persists a list's name and visibility.
func (r *Repository) UpdateList(ctx context.Context, list *model.List) error {
	query := `
		UPDATE lists
		SET name = $2, visibility = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		list.ID,
		list.Name,
		string(list.Visibility),
	).Scan(&list.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrListNotFound
		}
		return fmt.Errorf("failed to update list: %w", err)
	}

	return nil
}

// DeleteList removes a list and drops its ID from the owner's profile in one transaction.
func (r *Repository) DeleteList(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var ownerID string
		err := tx.QueryRow(ctx, `DELETE FROM lists WHERE id = $1 RETURNING owner_id`, id).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrListNotFound
			}
			return fmt.Errorf("failed to delete list: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET list_ids = array_remove(list_ids, $1) WHERE id = $2
		`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to unlink list from user: %w", err)
		}

		return nil
	})
}

// AddMovieToList appends movieID unless already present and returns the updated list.
func (r *Repository) AddMovieToList(ctx context.Context, listID, movieID string) (*model.List, error) {
	query := `
		UPDATE lists
		SET movies = CASE WHEN $2 = ANY(movies) THEN movies ELSE array_append(movies, $2) END,
		    updated_at = CASE WHEN $2 = ANY(movies) THEN updated_at ELSE NOW() END
		WHERE id = $1
		RETURNING ` + listColumns

	list, err := scanList(r.pool.QueryRow(ctx, query, listID, movieID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to add movie to list: %w", err)
	}

	return list, nil
}

// RemoveMovieFromList removes every occurrence of movieID and returns the updated list.
func (r *Repository) RemoveMovieFromList(ctx context.Context, listID, movieID string) (*model.List, error) {
	query := `
		UPDATE lists
		SET movies = array_remove(movies, $2),
		    updated_at = CASE WHEN $2 = ANY(movies) THEN NOW() ELSE updated_at END
		WHERE id = $1
		RETURNING ` + listColumns

	list, err := scanList(r.pool.QueryRow(ctx, query, listID, movieID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("failed to remove movie from list: %w", err)
	}

	return list, nil
}

func scanList(row pgx.Row) (*model.List, error) {
	var list model.List
	var visibility string
	err := row.Scan(
		&list.ID,
		&list.OwnerID,
		&list.Name,
		&visibility,
		&list.Movies,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	list.Visibility = model.Visibility(visibility)
	if list.Movies == nil {
		list.Movies = []string{}
	}
	return &list, nil
}
