package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartmed/smartmed-api/internal/domain/report"
	"github.com/smartmed/smartmed-api/internal/service"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

type generateReportResponse struct {
	Report       *report.Report `json:"report,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// Generate runs the report pipeline for a reading. Collaborator
// failures come back as a 200 with error_message set; the caller can
// retry by issuing the request again.
func (h *ReportHandler) Generate(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	readingID, ok := parseUUID(c, "readingID")
	if !ok {
		return
	}

	result, err := h.svc.GenerateReport(c.Request.Context(), readingID, patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if result.ErrorMessage != "" {
		respondOK(c, generateReportResponse{ErrorMessage: result.ErrorMessage})
		return
	}

	respondCreated(c, generateReportResponse{Report: result.Report})
}

func (h *ReportHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	id, ok := parseUUID(c, "reportID")
	if !ok {
		return
	}

	rep, err := h.svc.GetReport(c.Request.Context(), id, patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, rep)
}

func (h *ReportHandler) GetForReading(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	readingID, ok := parseUUID(c, "readingID")
	if !ok {
		return
	}

	rep, err := h.svc.GetReportForReading(c.Request.Context(), readingID, patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, rep)
}

func (h *ReportHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}

	reports, err := h.svc.ListReports(c.Request.Context(), patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, reports)
}

// Document serves the standalone printable report page.
func (h *ReportHandler) Document(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	id, ok := parseUUID(c, "reportID")
	if !ok {
		return
	}

	doc, err := h.svc.RenderDocument(c.Request.Context(), id, patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

type followUpRequest struct {
	Schedule string `json:"schedule" binding:"required"`
}

func (h *ReportHandler) ScheduleFollowUp(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	id, ok := parseUUID(c, "reportID")
	if !ok {
		return
	}

	var req followUpRequest
	if !bindJSON(c, &req) {
		return
	}

	rep, err := h.svc.ScheduleFollowUp(c.Request.Context(), id, patientID, req.Schedule, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, rep)
}

func (h *ReportHandler) CancelFollowUp(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	id, ok := parseUUID(c, "reportID")
	if !ok {
		return
	}

	if err := h.svc.CancelFollowUp(c.Request.Context(), id, patientID, caller); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReportHandler) Delete(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	id, ok := parseUUID(c, "reportID")
	if !ok {
		return
	}

	if err := h.svc.DeleteReport(c.Request.Context(), id, patientID, caller); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
