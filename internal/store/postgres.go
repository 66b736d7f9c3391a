package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pultar/gamepass-service/internal/catalog"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Repository is the pgx-backed persistence layer for the catalog tables.
// It assumes the following schema:
//
//	CREATE TABLE game_availability (
//		collection_id TEXT NOT NULL,
//		market        TEXT NOT NULL,
//		product_id    TEXT NOT NULL,
//		available_at  TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE game_descriptions (
//		product_id        TEXT NOT NULL,
//		language          TEXT NOT NULL,
//		title             TEXT NOT NULL,
//		description       TEXT,
//		developer         TEXT,
//		publisher         TEXT,
//		short_title       TEXT,
//		sort_title        TEXT,
//		short_description TEXT,
//		UNIQUE (product_id, language)
//	);
//
//	CREATE TABLE game_images (
//		product_id          TEXT NOT NULL,
//		language            TEXT NOT NULL,
//		file_id             TEXT NOT NULL,
//		height              INT,
//		width               INT,
//		uri                 TEXT NOT NULL,
//		image_purpose       TEXT NOT NULL,
//		image_position_info TEXT NOT NULL DEFAULT '',
//		UNIQUE (product_id, file_id, language, image_purpose, image_position_info)
//	);
type Repository struct {
	pool dbPool
}

// NewRepository opens a connection pool against the configured DSN.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// NewRepositoryWithPool constructs a Repository from an existing pool
// (primarily for testing).
func NewRepositoryWithPool(pool dbPool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Repository{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// SaveAvailability appends one availability row per product id for the
// given collection and market. Rows are append-only facts; the same
// product may appear again on a later crawl day.
func (r *Repository) SaveAvailability(ctx context.Context, collectionID, market string, productIDs []string, observedAt time.Time) error {
	if len(productIDs) == 0 {
		return nil
	}
	query := `
INSERT INTO game_availability (collection_id, market, product_id, available_at)
SELECT $1, $2, unnest($3::text[]), $4`
	if _, err := r.pool.Exec(ctx, query, collectionID, market, productIDs, observedAt); err != nil {
		return fmt.Errorf("insert availability: %w", err)
	}
	return nil
}

// UpsertDescriptions writes the localized description rows for one chunk
// of products. Conflicts on (product_id, language) update every
// descriptive column.
func (r *Repository) UpsertDescriptions(ctx context.Context, games []catalog.Game, language string) error {
	if len(games) == 0 {
		return nil
	}
	ids := make([]string, len(games))
	titles := make([]string, len(games))
	descriptions := make([]string, len(games))
	developers := make([]string, len(games))
	publishers := make([]string, len(games))
	shortTitles := make([]string, len(games))
	sortTitles := make([]string, len(games))
	shortDescriptions := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ProductID
		titles[i] = g.ProductTitle
		descriptions[i] = g.ProductDescription
		developers[i] = g.DeveloperName
		publishers[i] = g.PublisherName
		shortTitles[i] = g.ShortTitle
		sortTitles[i] = g.SortTitle
		shortDescriptions[i] = g.ShortDescription
	}

	query := `
INSERT INTO game_descriptions (product_id, language, product_title, product_description, developer_name, publisher_name, short_title, sort_title, short_description)
SELECT unnest($1::text[]), $2, unnest($3::text[]), unnest($4::text[]), unnest($5::text[]), unnest($6::text[]), unnest($7::text[]), unnest($8::text[]), unnest($9::text[])
ON CONFLICT (product_id, language)
DO UPDATE SET
	product_title = EXCLUDED.product_title,
	product_description = EXCLUDED.product_description,
	developer_name = EXCLUDED.developer_name,
	publisher_name = EXCLUDED.publisher_name,
	short_title = EXCLUDED.short_title,
	sort_title = EXCLUDED.sort_title,
	short_description = EXCLUDED.short_description`
	if _, err := r.pool.Exec(ctx, query,
		ids, language, titles, descriptions, developers, publishers,
		shortTitles, sortTitles, shortDescriptions,
	); err != nil {
		return fmt.Errorf("upsert descriptions: %w", err)
	}
	return nil
}

// UpsertImages flattens and writes the image descriptor rows for one
// chunk of products. Conflicts on (product_id, file_id, language,
// image_purpose, image_position_info) refresh uri and dimensions.
func (r *Repository) UpsertImages(ctx context.Context, games []catalog.Game, language string) error {
	var (
		ids           []string
		fileIDs       []string
		heights       []int
		widths        []int
		uris          []string
		purposes      []string
		positionInfos []string
	)
	for _, g := range games {
		for _, d := range g.ImageDescriptors {
			ids = append(ids, g.ProductID)
			fileIDs = append(fileIDs, d.FileID)
			heights = append(heights, d.Height)
			widths = append(widths, d.Width)
			uris = append(uris, d.URI)
			purposes = append(purposes, d.Purpose)
			positionInfos = append(positionInfos, d.PositionInfo)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query := `
INSERT INTO game_images (product_id, language, file_id, height, width, uri, image_purpose, image_position_info)
SELECT unnest($1::text[]), $2, unnest($3::text[]), unnest($4::int[]), unnest($5::int[]), unnest($6::text[]), unnest($7::text[]), unnest($8::text[])
ON CONFLICT (product_id, file_id, language, image_purpose, image_position_info)
DO UPDATE SET
	uri = EXCLUDED.uri,
	height = EXCLUDED.height,
	width = EXCLUDED.width`
	if _, err := r.pool.Exec(ctx, query,
		ids, language, fileIDs, heights, widths, uris, purposes, positionInfos,
	); err != nil {
		return fmt.Errorf("upsert images: %w", err)
	}
	return nil
}

// ListProducts returns distinct product ids observed in availability
// rows, optionally filtered by market and/or collection.
func (r *Repository) ListProducts(ctx context.Context, market, collectionID string) ([]string, error) {
	query := "SELECT DISTINCT product_id FROM game_availability"
	var (
		conditions []string
		args       []any
	)
	if market != "" {
		args = append(args, market)
		conditions = append(conditions, fmt.Sprintf("market = $%d", len(args)))
	}
	if collectionID != "" {
		args = append(args, collectionID)
		conditions = append(conditions, fmt.Sprintf("collection_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY product_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products rows: %w", err)
	}
	return ids, nil
}

// Details returns the stored description, image descriptors, and
// availability dates for the given products in one language. Market and
// collection filter the availability dates and may be empty.
func (r *Repository) Details(ctx context.Context, productIDs []string, language, market, collectionID string) ([]GameDetails, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	games, order, err := r.queryDescriptions(ctx, productIDs, language)
	if err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, games, productIDs, language); err != nil {
		return nil, err
	}
	if market != "" && collectionID != "" {
		if err := r.attachAvailability(ctx, games, productIDs, market, collectionID); err != nil {
			return nil, err
		}
	}

	out := make([]GameDetails, 0, len(order))
	for _, id := range order {
		out = append(out, *games[id])
	}
	return out, nil
}

func (r *Repository) queryDescriptions(ctx context.Context, productIDs []string, language string) (map[string]*GameDetails, []string, error) {
	query := `
SELECT product_id, product_title, product_description, developer_name, publisher_name, short_title, sort_title, short_description
FROM game_descriptions
WHERE product_id = ANY($1) AND language = $2
ORDER BY product_id`
	rows, err := r.pool.Query(ctx, query, productIDs, language)
	if err != nil {
		return nil, nil, fmt.Errorf("query descriptions: %w", err)
	}
	defer rows.Close()

	games := make(map[string]*GameDetails)
	var order []string
	for rows.Next() {
		var (
			g                                       catalog.Game
			description, developer, publisher       *string
			shortTitle, sortTitle, shortDescription *string
		)
		if err := rows.Scan(
			&g.ProductID, &g.ProductTitle, &description, &developer,
			&publisher, &shortTitle, &sortTitle, &shortDescription,
		); err != nil {
			return nil, nil, fmt.Errorf("scan description: %w", err)
		}
		g.ProductDescription = deref(description)
		g.DeveloperName = deref(developer)
		g.PublisherName = deref(publisher)
		g.ShortTitle = deref(shortTitle)
		g.SortTitle = deref(sortTitle)
		g.ShortDescription = deref(shortDescription)
		games[g.ProductID] = &GameDetails{Game: g}
		order = append(order, g.ProductID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("description rows: %w", err)
	}
	return games, order, nil
}

func (r *Repository) attachImages(ctx context.Context, games map[string]*GameDetails, productIDs []string, language string) error {
	query := `
SELECT product_id, file_id, height, width, uri, image_purpose, image_position_info
FROM game_images
WHERE product_id = ANY($1) AND language = $2
ORDER BY product_id, image_position_info, image_purpose`
	rows, err := r.pool.Query(ctx, query, productIDs, language)
	if err != nil {
		return fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			d         catalog.ImageDescriptor
		)
		if err := rows.Scan(&productID, &d.FileID, &d.Height, &d.Width, &d.URI, &d.Purpose, &d.PositionInfo); err != nil {
			return fmt.Errorf("scan image: %w", err)
		}
		if g, ok := games[productID]; ok {
			g.ImageDescriptors = append(g.ImageDescriptors, d)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("image rows: %w", err)
	}
	return nil
}

func (r *Repository) attachAvailability(ctx context.Context, games map[string]*GameDetails, productIDs []string, market, collectionID string) error {
	dates, err := r.availabilityDates(ctx, productIDs, market, collectionID)
	if err != nil {
		return err
	}
	for id, ds := range dates {
		if g, ok := games[id]; ok {
			g.AvailabilityDates = ds
		}
	}
	return nil
}

// Availability derives contiguous presence periods per product from the
// daily availability rows.
func (r *Repository) Availability(ctx context.Context, productIDs []string, market, collectionID string, now time.Time) (map[string][]Period, error) {
	dates, err := r.availabilityDates(ctx, productIDs, market, collectionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Period, len(productIDs))
	for _, id := range productIDs {
		out[id] = PeriodsFromDates(dates[id], now)
	}
	return out, nil
}

func (r *Repository) availabilityDates(ctx context.Context, productIDs []string, market, collectionID string) (map[string][]time.Time, error) {
	query := `
SELECT product_id, DATE(available_at) AS day
FROM game_availability
WHERE product_id = ANY($1) AND market = $2 AND collection_id = $3
GROUP BY product_id, day
ORDER BY product_id, day`
	rows, err := r.pool.Query(ctx, query, productIDs, market, collectionID)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	dates := make(map[string][]time.Time)
	for rows.Next() {
		var (
			id  string
			day time.Time
		)
		if err := rows.Scan(&id, &day); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		dates[id] = append(dates[id], day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability rows: %w", err)
	}
	return dates, nil
}

// ImageURL resolves the source uri for one product image. A purpose of
// the form "Screenshot_<N>" matches purpose "Screenshot" at position <N>.
// Returns ErrNotFound when no row matches.
func (r *Repository) ImageURL(ctx context.Context, productID, language, purpose string) (string, error) {
	var (
		query string
		args  []any
	)
	if position, ok := strings.CutPrefix(purpose, "Screenshot_"); ok {
		query = `
SELECT uri FROM game_images
WHERE product_id = $1 AND language = $2 AND image_purpose = $3 AND image_position_info = $4
LIMIT 1`
		args = []any{productID, language, "Screenshot", position}
	} else {
		query = `
SELECT uri FROM game_images
WHERE product_id = $1 AND language = $2 AND image_purpose = $3
LIMIT 1`
		args = []any{productID, language, purpose}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("query image url: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("image url rows: %w", err)
		}
		return "", ErrNotFound
	}
	var uri string
	if err := rows.Scan(&uri); err != nil {
		return "", fmt.Errorf("scan image url: %w", err)
	}
	return uri, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
