package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/smartmed/smartmed-api/internal/domain/doctor"
	"github.com/smartmed/smartmed-api/internal/service"
)

type DoctorHandler struct {
	svc *service.DoctorService
}

func NewDoctorHandler(svc *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

func (h *DoctorHandler) GetProfile(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	d, err := h.svc.GetProfile(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, d)
}

type updateDoctorRequest struct {
	Name              *string `json:"name"`
	Gender            *string `json:"gender"`
	PracticeStartYear *int    `json:"practice_start_year"`
	Degree            *string `json:"degree"`
	Speciality        *string `json:"speciality"`
}

func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &doctor.UpdateDoctorCommand{
		Name:              req.Name,
		PracticeStartYear: req.PracticeStartYear,
		Degree:            req.Degree,
		Speciality:        req.Speciality,
	}
	if req.Gender != nil {
		g := doctor.Gender(*req.Gender)
		cmd.Gender = &g
	}

	d, err := h.svc.UpdateProfile(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, d)
}
