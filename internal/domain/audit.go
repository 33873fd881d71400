package domain

// AuditField is the outcome of one audited dimension
type AuditField[T any] struct {
	OK        bool   `json:"ok"`
	Current   T      `json:"current"`
	Suggested T      `json:"suggested"`
	Reason    string `json:"reason"`
}

// ImagesField reports the image count instead of the images themselves
type ImagesField struct {
	OK           bool     `json:"ok"`
	CurrentCount int      `json:"currentCount"`
	Suggested    []string `json:"suggested"`
	Reason       string   `json:"reason"`
}

// AuditResult is the score and per-field findings for one product record
type AuditResult struct {
	Passed  bool                          `json:"passed"`
	Score   int                           `json:"score"` // 0-100
	Error   string                        `json:"error,omitempty"`
	Title   AuditField[string]            `json:"title"`
	About   AuditField[string]            `json:"about"`
	Bullets AuditField[[]string]          `json:"bullets"`
	Specs   AuditField[map[string]string] `json:"specs"`
	Images  ImagesField                   `json:"images"`
	Price   AuditField[*string]           `json:"price"`
}

// AuditRow pairs an input URL with its audit
type AuditRow struct {
	URL   string      `json:"url"`
	Audit AuditResult `json:"audit"`
}

// AuditRequest is the body of an audit request
type AuditRequest struct {
	URLs []string `json:"urls"`
}

// AuditResponse is the body of an audit response, rows in request order
type AuditResponse struct {
	Rows []AuditRow `json:"rows"`
}

// FailedReason is the reason reported on every field of a degraded row
const FailedReason = "fetch/parse failed"

// NewFailedAudit builds the degraded result returned when a URL's pipeline fails
func NewFailedAudit(err error) AuditResult {
	msg := FailedReason
	if err != nil {
		msg = FailedReason + ": " + err.Error()
	}
	return AuditResult{
		Passed:  false,
		Score:   0,
		Error:   msg,
		Title:   AuditField[string]{Reason: FailedReason},
		About:   AuditField[string]{Reason: FailedReason},
		Bullets: AuditField[[]string]{Current: []string{}, Suggested: []string{}, Reason: FailedReason},
		Specs:   AuditField[map[string]string]{Current: map[string]string{}, Suggested: map[string]string{}, Reason: FailedReason},
		Images:  ImagesField{Suggested: []string{}, Reason: FailedReason},
		Price:   AuditField[*string]{Reason: FailedReason},
	}
}
