package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/service"
)

type PatientHandler struct {
	svc       *service.PatientService
	reportSvc *service.ReportService
}

func NewPatientHandler(svc *service.PatientService, reportSvc *service.ReportService) *PatientHandler {
	return &PatientHandler{svc: svc, reportSvc: reportSvc}
}

type createPatientRequest struct {
	Name           string   `json:"name" binding:"required"`
	DateOfBirth    string   `json:"date_of_birth" binding:"required"`
	Gender         string   `json:"gender" binding:"required"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	BloodGroup     string   `json:"blood_group"`
	SmokingStatus  string   `json:"smoking_status"`
	MedicalHistory string   `json:"medical_history"`
	Allergies      []string `json:"allergies"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	if caller.DoctorID == nil {
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		respondError(c, http.StatusBadRequest, "date_of_birth must be in YYYY-MM-DD format")
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), &patient.CreatePatientCommand{
		Name:           req.Name,
		DateOfBirth:    dob,
		Gender:         patient.Gender(req.Gender),
		Phone:          req.Phone,
		Email:          req.Email,
		BloodGroup:     patient.BloodGroup(req.BloodGroup),
		SmokingStatus:  patient.SmokingStatus(req.SmokingStatus),
		MedicalHistory: req.MedicalHistory,
		Allergies:      req.Allergies,
		DoctorID:       *caller.DoctorID,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	patients, err := h.svc.ListPatients(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, patients)
}

type updatePatientRequest struct {
	Name           *string   `json:"name"`
	Gender         *string   `json:"gender"`
	Phone          *string   `json:"phone"`
	Email          *string   `json:"email"`
	BloodGroup     *string   `json:"blood_group"`
	SmokingStatus  *string   `json:"smoking_status"`
	MedicalHistory *string   `json:"medical_history"`
	Allergies      *[]string `json:"allergies"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		MedicalHistory: req.MedicalHistory,
		Allergies:      req.Allergies,
	}
	if req.Gender != nil {
		g := patient.Gender(*req.Gender)
		cmd.Gender = &g
	}
	if req.BloodGroup != nil {
		bg := patient.BloodGroup(*req.BloodGroup)
		cmd.BloodGroup = &bg
	}
	if req.SmokingStatus != nil {
		ss := patient.SmokingStatus(*req.SmokingStatus)
		cmd.SmokingStatus = &ss
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), id, cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type curedRequest struct {
	Cured *bool `json:"cured" binding:"required"`
}

// SetCured flips the cured flag, cancelling follow-ups when curing.
func (h *PatientHandler) SetCured(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}

	var req curedRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.reportSvc.MarkPatientCured(c.Request.Context(), id, *req.Cured, caller); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse[any]{Message: "patient updated"})
}

func (h *PatientHandler) Delete(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "patientID")
	if !ok {
		return
	}

	if err := h.svc.DeletePatient(c.Request.Context(), id, caller); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
