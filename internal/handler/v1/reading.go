package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartmed/smartmed-api/internal/domain/reading"
	"github.com/smartmed/smartmed-api/internal/service"
)

type ReadingHandler struct {
	svc *service.ReadingService
}

func NewReadingHandler(svc *service.ReadingService) *ReadingHandler {
	return &ReadingHandler{svc: svc}
}

type createReadingRequest struct {
	TemperatureCelsius *float64 `json:"temperature_celsius"`
	HeartRateBPM       *float64 `json:"heart_rate_bpm"`
	BPSystolic         *float64 `json:"bp_systolic"`
	BPDiastolic        *float64 `json:"bp_diastolic"`
	RespiratoryRate    *float64 `json:"respiratory_rate"`
	OxygenSaturation   *float64 `json:"oxygen_saturation"`
	GlucoseLevel       *float64 `json:"glucose_level"`
	HeightCm           *float64 `json:"height_cm"`
	WeightKg           *float64 `json:"weight_kg"`
	DiagnosedFor       string   `json:"diagnosed_for"`
}

func (h *ReadingHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}

	var req createReadingRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.RecordReading(c.Request.Context(), &reading.CreateReadingCommand{
		PatientID:          patientID,
		TemperatureCelsius: req.TemperatureCelsius,
		HeartRateBPM:       req.HeartRateBPM,
		BPSystolic:         req.BPSystolic,
		BPDiastolic:        req.BPDiastolic,
		RespiratoryRate:    req.RespiratoryRate,
		OxygenSaturation:   req.OxygenSaturation,
		GlucoseLevel:       req.GlucoseLevel,
		HeightCm:           req.HeightCm,
		WeightKg:           req.WeightKg,
		DiagnosedFor:       req.DiagnosedFor,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, r)
}

func (h *ReadingHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	id, ok := parseUUID(c, "readingID")
	if !ok {
		return
	}

	r, err := h.svc.GetReading(c.Request.Context(), id, patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, r)
}

func (h *ReadingHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}

	readings, err := h.svc.ListReadings(c.Request.Context(), patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, readings)
}

func (h *ReadingHandler) Delete(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}
	id, ok := parseUUID(c, "readingID")
	if !ok {
		return
	}

	if err := h.svc.DeleteReading(c.Request.Context(), id, patientID, caller); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
