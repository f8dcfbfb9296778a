package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/moderation/entity"
)

// ReportPostgres implements report storage for PostgreSQL
type ReportPostgres struct {
	pool *pgxpool.Pool
}

// NewReportPostgres creates a new PostgreSQL report repository
func NewReportPostgres(pool *pgxpool.Pool) *ReportPostgres {
	return &ReportPostgres{pool: pool}
}

// Insert files a new report
func (r *ReportPostgres) Insert(ctx context.Context, report *entity.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO reports (id, reporter_id, reported_user_id, reported_post_id, report_type, reason, status, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)
	`, report.ID, report.ReporterID, report.ReportedUserID, report.ReportedPostID,
		report.Category, report.Reason, report.Status, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

// GetByID loads one report without embedded profiles
func (r *ReportPostgres) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	var (
		report       entity.Report
		reportedUser *string
		reportedPost *string
		resolvedBy   *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, reporter_id, reported_user_id, reported_post_id, report_type,
		       reason, status, resolved_at, resolved_by, created_at
		FROM reports
		WHERE id = $1
	`, id).Scan(
		&report.ID, &report.ReporterID, &reportedUser, &reportedPost, &report.Category,
		&report.Reason, &report.Status, &report.ResolvedAt, &resolvedBy, &report.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning report: %w", err)
	}
	if reportedUser != nil {
		report.ReportedUserID = *reportedUser
	}
	if reportedPost != nil {
		report.ReportedPostID = *reportedPost
	}
	if resolvedBy != nil {
		report.ResolvedBy = *resolvedBy
	}
	return &report, nil
}

// List returns reports newest first with reporter, reported user and reported
// post summaries embedded
func (r *ReportPostgres) List(ctx context.Context, limit int) ([]entity.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rp.id, rp.reporter_id, rp.reported_user_id, rp.reported_post_id, rp.report_type,
		       rp.reason, rp.status, rp.resolved_at, rp.resolved_by, rp.created_at,
		       repr.username, repr.display_name, COALESCE(repr.avatar_url, ''),
		       tgt.username, tgt.display_name, COALESCE(tgt.avatar_url, ''),
		       p.content, p.created_at
		FROM reports rp
		JOIN profiles repr ON repr.user_id = rp.reporter_id
		LEFT JOIN profiles tgt ON tgt.user_id = rp.reported_user_id
		LEFT JOIN posts p ON p.id = rp.reported_post_id
		ORDER BY rp.created_at DESC, rp.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []entity.Report
	for rows.Next() {
		var (
			report                             entity.Report
			reportedUser, reportedPost         *string
			resolvedBy                         *string
			reporter                           entity.ProfileSummary
			tgtUsername, tgtDisplay, tgtAvatar *string
			postContent                        *string
			postCreatedAt                      *time.Time
		)
		err := rows.Scan(
			&report.ID, &report.ReporterID, &reportedUser, &reportedPost, &report.Category,
			&report.Reason, &report.Status, &report.ResolvedAt, &resolvedBy, &report.CreatedAt,
			&reporter.Username, &reporter.DisplayName, &reporter.AvatarURL,
			&tgtUsername, &tgtDisplay, &tgtAvatar,
			&postContent, &postCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}

		reporter.UserID = report.ReporterID
		report.Reporter = &reporter
		if resolvedBy != nil {
			report.ResolvedBy = *resolvedBy
		}
		if reportedUser != nil {
			report.ReportedUserID = *reportedUser
			if tgtUsername != nil {
				report.ReportedUser = &entity.ProfileSummary{
					UserID:      *reportedUser,
					Username:    *tgtUsername,
					DisplayName: derefString(tgtDisplay),
					AvatarURL:   derefString(tgtAvatar),
				}
			}
		}
		if reportedPost != nil {
			report.ReportedPostID = *reportedPost
			if postContent != nil {
				report.ReportedPost = &entity.PostSummary{
					ID:        *reportedPost,
					Content:   *postContent,
					CreatedAt: derefTime(postCreatedAt),
				}
			}
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Resolve marks a pending report resolved. The idempotency guard lives in the
// service; the status filter here keeps a concurrent double-resolve from
// rewriting resolution metadata.
func (r *ReportPostgres) Resolve(ctx context.Context, id, moderatorID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reports
		SET status = $1, resolved_at = $2, resolved_by = $3
		WHERE id = $4 AND status = $5
	`, entity.ReportResolved, at, moderatorID, id, entity.ReportPending)
	if err != nil {
		return fmt.Errorf("updating report: %w", err)
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
