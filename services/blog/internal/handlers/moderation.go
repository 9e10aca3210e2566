package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/example/blog-platform/internal/platform/api"
	"github.com/example/blog-platform/services/blog/internal/moderation"
	"github.com/example/blog-platform/services/blog/internal/store"
)

type reportRequest struct {
	Reason  string  `json:"reason"`
	Details *string `json:"details,omitempty"`
}

type reviewRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type blockRequest struct {
	Reason string `json:"reason"`
}

type reportsResponse struct {
	Reports []store.Report `json:"reports"`
}

type reportedResponse struct {
	Reported bool `json:"reported"`
}

// ReportComment handles POST /v1/comments/{comment_id}/reports
func ReportComment(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		var req reportRequest
		if !decode(w, r, &req) {
			return
		}
		rep, err := svc.CreateReport(r.Context(), ActorFromRequest(r), id, moderation.ReportInput{
			Reason:  req.Reason,
			Details: req.Details,
		})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, rep)
	}
}

// HasReported handles GET /v1/comments/{comment_id}/reported
func HasReported(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		actor := ActorFromRequest(r)
		if !actor.Authenticated() {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", requestID(r))
			return
		}
		reported, err := svc.HasUserReported(r.Context(), id, actor.UserID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, reportedResponse{Reported: reported})
	}
}

// ReviewReport handles POST /v1/reports/{report_id}/review
func ReviewReport(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "report_id")
		if !ok {
			return
		}
		var req reviewRequest
		if !decode(w, r, &req) {
			return
		}
		status, err := store.ParseReportStatus(req.Status)
		if err != nil {
			api.BadRequest(w, "INVALID_STATUS", "Status must be reviewed, rejected or action_taken", requestID(r),
				map[string]any{"status": req.Status})
			return
		}
		rep, err := svc.ReviewReport(r.Context(), ActorFromRequest(r), id, status, req.Notes)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, rep)
	}
}

// ListReports handles GET /v1/reports?status=&comment_id=&limit=
func ListReports(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var f store.ReportFilter
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			st, err := store.ParseReportStatus(raw)
			if err != nil {
				api.BadRequest(w, "INVALID_STATUS", "Unknown report status", requestID(r), map[string]any{"status": raw})
				return
			}
			f.Status = &st
		}
		if raw := strings.TrimSpace(q.Get("comment_id")); raw != "" {
			cid, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || cid <= 0 {
				api.BadRequest(w, "INVALID_ID", "comment_id must be a positive integer", requestID(r), map[string]any{"comment_id": raw})
				return
			}
			f.CommentID = &cid
		}
		f.Limit = 50
		if l := q.Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
				f.Limit = parsed
			}
		}

		reports, err := svc.ListReports(r.Context(), ActorFromRequest(r), f)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, reportsResponse{Reports: reports})
	}
}

// GetReport handles GET /v1/reports/{report_id}
func GetReport(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "report_id")
		if !ok {
			return
		}
		rep, err := svc.GetReport(r.Context(), ActorFromRequest(r), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, rep)
	}
}

// BlockComment handles POST /v1/comments/{comment_id}/block
func BlockComment(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		var req blockRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := svc.BlockComment(r.Context(), ActorFromRequest(r), id, req.Reason)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}

// UnblockComment handles POST /v1/comments/{comment_id}/unblock
func UnblockComment(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "comment_id")
		if !ok {
			return
		}
		c, err := svc.UnblockComment(r.Context(), ActorFromRequest(r), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, c)
	}
}

