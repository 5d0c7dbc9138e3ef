package admin

import (
	"net/http"
	"strconv"

	"github.com/clubgate/clubgate/app"
	"github.com/clubgate/clubgate/domain/member"
	"github.com/clubgate/clubgate/domain/plan"
)

// PlanRequest is the create/update payload for a plan.
type PlanRequest struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Duration     int    `json:"duration"`
	DurationUnit string `json:"duration_unit"`
	Enabled      *bool  `json:"enabled,omitempty"`
}

// ListPlans returns all plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.membership.ListPlans(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": toPlanResponses(plans)})
}

// CreatePlan creates a plan.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := planFromRequest(req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	created, err := h.membership.CreatePlan(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(created))
}

// GetPlan returns one plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.membership.GetPlan(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(p))
}

// UpdatePlan modifies a plan.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ID = urlParam(r, "id")

	p, err := planFromRequest(req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	updated, err := h.membership.UpdatePlan(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(updated))
}

// DeletePlan removes a plan.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.membership.DeletePlan(r.Context(), urlParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MemberRequest is the create payload for a member.
type MemberRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
}

// ListMembers returns members with pagination.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	members, err := h.membership.ListMembers(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": toMemberResponses(members)})
}

// CreateMember creates a member.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.membership.CreateMember(r.Context(), member.Member{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(created))
}

// GetMember returns one member.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.membership.GetMember(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

func planFromRequest(req PlanRequest) (plan.Plan, error) {
	enabled := req.Enabled == nil || *req.Enabled
	return app.PlanFromSeed(req.ID, req.Name, req.Price, req.Duration, req.DurationUnit, enabled)
}
