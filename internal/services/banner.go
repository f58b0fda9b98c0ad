package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/courtside/pos-go-app/internal/db"
	"github.com/courtside/pos-go-app/internal/metrics"
	"github.com/courtside/pos-go-app/internal/models"
)

// BannerService manages the promotional banners shown on the register's
// customer-facing display
type BannerService struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewBannerService creates a new banner service
func NewBannerService(db *db.DB, metrics *metrics.AppMetrics) *BannerService {
	return &BannerService{db: db, metrics: metrics}
}

// ListBanners returns banners ordered by display priority. When activeOnly
// is set, inactive banners are filtered out.
func (s *BannerService) ListBanners(ctx context.Context, activeOnly bool) ([]models.Banner, error) {
	query := `SELECT id, title, image_url, target_url, active, display_priority, created_at, updated_at
		FROM banners`
	if activeOnly {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY display_priority, id"

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	s.metrics.RecordDBQuery(ctx, "SELECT", "banners", query, start, err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query banners: %w", err)
	}
	defer rows.Close()

	var banners []models.Banner
	for rows.Next() {
		var b models.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageURL, &b.TargetURL, &b.Active,
			&b.DisplayPriority, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan banner: %w", err)
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

// CreateBanner inserts a banner at the end of the display order
func (s *BannerService) CreateBanner(ctx context.Context, banner *models.Banner) error {
	if banner.Title == "" {
		return fmt.Errorf("banner title is required")
	}

	start := time.Now()
	query := `INSERT INTO banners (title, image_url, target_url, active, display_priority)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(b.display_priority), 0) + 1 FROM banners b))`
	result, err := s.db.ExecContext(ctx, query, banner.Title, banner.ImageURL, banner.TargetURL, banner.Active)
	s.metrics.RecordDBQuery(ctx, "INSERT", "banners", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to create banner: %w", err)
	}

	banner.ID, _ = result.LastInsertId()
	log.Printf("[BANNER] Created: id=%d title=%q", banner.ID, banner.Title)
	return nil
}

// UpdateBanner updates a banner's content and active flag
func (s *BannerService) UpdateBanner(ctx context.Context, banner *models.Banner) error {
	start := time.Now()
	query := `UPDATE banners SET title = ?, image_url = ?, target_url = ?, active = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		banner.Title, banner.ImageURL, banner.TargetURL, banner.Active, banner.ID)
	s.metrics.RecordDBQuery(ctx, "UPDATE", "banners", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to update banner: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("banner not found")
	}
	return nil
}

// DeleteBanner removes a banner
func (s *BannerService) DeleteBanner(ctx context.Context, id int64) error {
	start := time.Now()
	query := `DELETE FROM banners WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	s.metrics.RecordDBQuery(ctx, "DELETE", "banners", query, start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete banner: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("banner not found")
	}
	return nil
}

// Reorder rewrites display priorities to match the given ID order. All
// current banners must be listed exactly once.
func (s *BannerService) Reorder(ctx context.Context, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return fmt.Errorf("banner order is required")
	}
	seen := make(map[int64]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return fmt.Errorf("duplicate banner id %d in order", id)
		}
		seen[id] = true
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	var total int
	countQuery := `SELECT COUNT(*) FROM banners`
	if err := dbTx.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return fmt.Errorf("failed to count banners: %w", err)
	}
	if total != len(orderedIDs) {
		return fmt.Errorf("order must list all %d banners", total)
	}

	start := time.Now()
	query := `UPDATE banners SET display_priority = ? WHERE id = ?`
	for pos, id := range orderedIDs {
		result, err := dbTx.ExecContext(ctx, query, pos+1, id)
		if err != nil {
			s.metrics.RecordDBQuery(ctx, "UPDATE", "banners", query, start, false)
			return fmt.Errorf("failed to reorder banner %d: %w", id, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			// MySQL reports zero rows when the value is unchanged too, so
			// verify existence before rejecting.
			var exists int
			if err := dbTx.QueryRowContext(ctx, `SELECT COUNT(*) FROM banners WHERE id = ?`, id).Scan(&exists); err != nil || exists == 0 {
				s.metrics.RecordDBQuery(ctx, "UPDATE", "banners", query, start, false)
				return fmt.Errorf("banner %d not found", id)
			}
		}
	}
	s.metrics.RecordDBQuery(ctx, "UPDATE", "banners", query, start, true)

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit banner order: %w", err)
	}

	ids := make([]string, len(orderedIDs))
	for i, id := range orderedIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	log.Printf("[BANNER] Reordered: %s", strings.Join(ids, ","))
	return nil
}
