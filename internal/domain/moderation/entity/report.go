package entity

import "time"

// ReportStatus is the one-way lifecycle of a report
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

// ReportCategory enumerates the reasons a user can flag content
type ReportCategory string

const (
	CategorySpam           ReportCategory = "spam"
	CategoryHarassment     ReportCategory = "harassment"
	CategoryHateSpeech     ReportCategory = "hate_speech"
	CategoryInappropriate  ReportCategory = "inappropriate"
	CategoryMisinformation ReportCategory = "misinformation"
	CategoryOther          ReportCategory = "other"
)

// Valid reports whether c is a known category
func (c ReportCategory) Valid() bool {
	switch c {
	case CategorySpam, CategoryHarassment, CategoryHateSpeech,
		CategoryInappropriate, CategoryMisinformation, CategoryOther:
		return true
	}
	return false
}

// Report is a user-submitted flag against a post or a user
type Report struct {
	ID             string         `json:"id"`
	ReporterID     string         `json:"reporter_id"`
	ReportedUserID string         `json:"reported_user_id,omitempty"`
	ReportedPostID string         `json:"reported_post_id,omitempty"`
	Category       ReportCategory `json:"report_type"`
	Reason         string         `json:"reason"`
	Status         ReportStatus   `json:"status"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy     string         `json:"resolved_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`

	Reporter     *ProfileSummary `json:"reporter,omitempty"`
	ReportedUser *ProfileSummary `json:"reported_user,omitempty"`
	ReportedPost *PostSummary    `json:"reported_post,omitempty"`
}

// PostSummary is the slice of a reported post shown on the dashboard
type PostSummary struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks a report before it reaches the store: a known category, a
// non-blank reason and at least one target.
func (r *Report) Validate() error {
	if !r.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := ValidateReason(r.Reason); err != nil {
		return err
	}
	if r.ReportedUserID == "" && r.ReportedPostID == "" {
		return ErrMissingTarget
	}
	return nil
}
