package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/matst80/slask-storefront/pkg/types"
	_ "modernc.org/sqlite"
)

type Product struct {
	Id          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Genre       string  `json:"genre" yaml:"genre"`
	Platform    string  `json:"platform" yaml:"platform"`
	Publisher   string  `json:"publisher" yaml:"publisher"`
	Price       float64 `json:"price" yaml:"price"`
	Discount    int     `json:"discount" yaml:"discount"`
	Rating      float64 `json:"rating" yaml:"rating"`
	ReleaseYear string  `json:"releaseYear" yaml:"year"`
	Popularity  int     `json:"-" yaml:"popularity"`
}

type Page struct {
	Page int `json:"page" schema:"page"`
	Size int `json:"size" schema:"size,default:24"`
}

func (p Page) Sanitize() Page {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > 100 {
		p.Page = 100
	}
	if p.Size < 1 {
		p.Size = 24
	}
	if p.Size > 200 {
		p.Size = 200
	}
	return p
}

type Result struct {
	Items     []Product `json:"items"`
	TotalHits int       `json:"totalHits"`
	Page      int       `json:"page"`
	PageSize  int       `json:"pageSize"`
}

const schemaSql = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	genre TEXT NOT NULL,
	platform TEXT NOT NULL,
	publisher TEXT NOT NULL,
	price REAL NOT NULL,
	discount INTEGER NOT NULL DEFAULT 0,
	rating REAL NOT NULL DEFAULT 0,
	release_year TEXT NOT NULL DEFAULT '',
	popularity INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS products_genre ON products(genre);
CREATE INDEX IF NOT EXISTS products_platform ON products(platform);
CREATE INDEX IF NOT EXISTS products_publisher ON products(publisher);
`

// SQLStore is the catalog query service backed by sqlite.
type SQLStore struct {
	db *sql.DB
}

// Open opens (and migrates) the sqlite database at path. Use ":memory:" for
// a throwaway catalog.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schemaSql); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog db: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Upsert(ctx context.Context, products ...Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO products
		(id, name, genre, platform, publisher, price, discount, rating, release_year, popularity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, genre = excluded.genre, platform = excluded.platform,
			publisher = excluded.publisher, price = excluded.price, discount = excluded.discount,
			rating = excluded.rating, release_year = excluded.release_year,
			popularity = excluded.popularity`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.Id, p.Name, p.Genre, p.Platform, p.Publisher,
			p.Price, p.Discount, p.Rating, p.ReleaseYear, p.Popularity); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert product %d: %w", p.Id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *whereBuilder) in(column string, ids types.IdSet) {
	if len(ids) == 0 {
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	w.add(column+" IN ("+marks+")", args...)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func buildWhere(f types.FilterState) (*whereBuilder, string) {
	w := &whereBuilder{}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search != "" {
		w.add(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(search)+"%")
	}
	w.in("genre", f.Genres)
	w.in("platform", f.Platforms)
	w.in("publisher", f.Publishers)
	if !f.PriceRange.IsDefault() {
		w.add("price BETWEEN ? AND ?", f.PriceRange.Min, f.PriceRange.Max)
	}
	if f.Rating != nil {
		w.add("rating >= ?", *f.Rating)
	}
	if f.ReleaseYear != "" {
		w.add("release_year = ?", f.ReleaseYear)
	}
	if f.OnSale {
		w.add("discount > 0")
	}
	return w, search
}

func orderBy(sort types.SortOrder, search string) (string, []any) {
	switch sort {
	case types.SortPriceAsc:
		return "price ASC, id", nil
	case types.SortPriceDesc:
		return "price DESC, id", nil
	case types.SortNameAsc:
		return "name COLLATE NOCASE ASC, id", nil
	case types.SortNameDesc:
		return "name COLLATE NOCASE DESC, id", nil
	case types.SortRatingDesc:
		return "rating DESC, id", nil
	case types.SortReleaseDesc:
		return "release_year DESC, id", nil
	case types.SortDiscount:
		return "discount DESC, id", nil
	}
	if search != "" {
		return `CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, popularity DESC, id`,
			[]any{escapeLike(search) + "%"}
	}
	return "popularity DESC, id", nil
}

// Query returns the page of products matching the filter state.
func (s *SQLStore) Query(ctx context.Context, f types.FilterState, page Page) (*Result, error) {
	page = page.Sanitize()
	where, search := buildWhere(f)

	result := &Result{Items: []Product{}, Page: page.Page, PageSize: page.Size}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where.String(), where.args...).Scan(&result.TotalHits); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	order, orderArgs := orderBy(f.SortBy, search)
	args := append(append([]any{}, where.args...), orderArgs...)
	args = append(args, page.Size, page.Page*page.Size)
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, genre, platform, publisher, price, discount,
		rating, release_year, popularity FROM products`+where.String()+" ORDER BY "+order+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.Id, &p.Name, &p.Genre, &p.Platform, &p.Publisher, &p.Price,
			&p.Discount, &p.Rating, &p.ReleaseYear, &p.Popularity); err != nil {
			return nil, err
		}
		result.Items = append(result.Items, p)
	}
	return result, rows.Err()
}
