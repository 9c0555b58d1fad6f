package http

import (
	"net/http"
	"strconv"

	"budgetboard/internal/core"
	"budgetboard/internal/export"
	blog "budgetboard/internal/log"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.reports.Overview(r.Context())
	itemJSON(w, r, o, err)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := expenseFilter(r)
	if err != nil {
		writeError(w, r, blog.OpRead, err)
		return
	}
	a, err := s.reports.Analytics(r.Context(), f)
	itemJSON(w, r, a, err)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, scope := s.reportParams(r)
	rep, err := s.reports.MonthlyReport(r.Context(), year, scope)
	itemJSON(w, r, rep, err)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	usage, err := s.reports.CategoryReport(r.Context())
	itemJSON(w, r, usage, err)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.reports.Alerts(r.Context(), queryInt(r, "limit"))
	if alerts == nil {
		alerts = []core.BudgetAlert{}
	}
	itemJSON(w, r, alerts, err)
}

// reportData loads the monthly and category reports an export needs.
func (s *Server) reportData(r *http.Request) (core.MonthlyReport, []core.CategoryUsage, error) {
	year, scope := s.reportParams(r)
	rep, err := s.reports.MonthlyReport(r.Context(), year, scope)
	if err != nil {
		return core.MonthlyReport{}, nil, err
	}
	usage, err := s.reports.CategoryReport(r.Context())
	if err != nil {
		return core.MonthlyReport{}, nil, err
	}
	return rep, usage, nil
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, usage, err := s.reportData(r)
	if err != nil {
		writeError(w, r, blog.OpExport, err)
		return
	}
	data, err := export.Workbook(rep, usage)
	if err != nil {
		writeError(w, r, blog.OpExport, err)
		return
	}
	blog.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		"format", "xlsx", blog.FieldYear, rep.Year, "bytes", len(data))
	writeAttachment(w, contentTypeXLSX, export.Filename(rep, "xlsx"), data)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	rep, usage, err := s.reportData(r)
	if err != nil {
		writeError(w, r, blog.OpExport, err)
		return
	}
	data, err := export.PDF(rep, usage, s.now())
	if err != nil {
		writeError(w, r, blog.OpExport, err)
		return
	}
	blog.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		"format", "pdf", blog.FieldYear, rep.Year, "bytes", len(data))
	writeAttachment(w, contentTypePDF, export.Filename(rep, "pdf"), data)
}

// handlePublishSheets writes the whole-board report for ?year= into the
// configured spreadsheet.
func (s *Server) handlePublishSheets(w http.ResponseWriter, r *http.Request) {
	if s.sheets == nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, "Google Sheets is not configured")
		return
	}
	year, _ := s.reportParams(r)
	rep, err := s.reports.MonthlyReport(r.Context(), year, core.ReportScope{})
	if err != nil {
		writeError(w, r, blog.OpPublish, err)
		return
	}
	usage, err := s.reports.CategoryReport(r.Context())
	if err != nil {
		writeError(w, r, blog.OpPublish, err)
		return
	}
	ref, err := s.sheets.PublishReport(r.Context(), rep, usage)
	if err != nil {
		writeError(w, r, blog.OpPublish, err)
		return
	}
	blog.FromContext(r.Context()).InfoContext(r.Context(), "Report published to Google Sheets",
		blog.FieldYear, year, "range", ref)

	b := NewHTMXResponse()
	if isHTMX(r) {
		b.TriggerSuccessNotification("Report published to Google Sheets")
	}
	b.JSON(map[string]any{"year": year, "range": ref}).Write(w)
}
