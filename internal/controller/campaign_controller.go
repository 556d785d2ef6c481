package controller

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Orchestrator    *service.Orchestrator
	Statistics      *service.StatisticsService
}

type updateCampaignRequest struct {
	ID string `json:"id"`
	service.CampaignInput
}

type actionRequest struct {
	Action string `json:"acao" validate:"required"`
}

type startRequest struct {
	CampaignID string `json:"campanhaId" validate:"required"`
}

// ListCampaigns handles GET /campanhas?page=&page_size=&status=
func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	pageSize := queryInt(r, "page_size")
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success:    true,
		Data:       campaigns,
		Pagination: pagination,
	})
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CampaignInput
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCreated(w, "campaign created", campaign)
}

// UpdateCampaign handles PUT /campanhas with the id in the body.
func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var body updateCampaignRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(body.ID) == "" {
		respondError(w, r, appErrors.Validation("id is required"))
		return
	}
	c.update(w, r, body.ID, body.CampaignInput)
}

// UpdateCampaignByID handles PUT /campanhas/{id}.
func (c *CampaignController) UpdateCampaignByID(w http.ResponseWriter, r *http.Request) {
	var body service.CampaignInput
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	c.update(w, r, chi.URLParam(r, "id"), body)
}

func (c *CampaignController) update(w http.ResponseWriter, r *http.Request, id string, in service.CampaignInput) {
	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "campaign updated", campaign)
}

// DeleteCampaign handles DELETE /campanhas?id=
func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		respondError(w, r, appErrors.Validation("id is required"))
		return
	}
	c.delete(w, r, id)
}

func (c *CampaignController) DeleteCampaignByID(w http.ResponseWriter, r *http.Request) {
	c.delete(w, r, chi.URLParam(r, "id"))
}

func (c *CampaignController) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := c.CampaignService.DeleteCampaign(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "campaign deleted", nil)
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.GetCampaignDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "", campaign)
}

// ChangeStatus handles PATCH /campanhas/{id} with {acao: pause|resume|cancel}.
func (c *CampaignController) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if err := service.ValidateStruct(body); err != nil {
		respondError(w, r, err)
		return
	}

	campaign, err := c.CampaignService.ApplyAction(r.Context(), chi.URLParam(r, "id"), body.Action)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "campaign status updated", campaign)
}

// StartCampaign handles POST /campanhas/iniciar. The whole send loop runs
// inside the request.
func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if err := service.ValidateStruct(body); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := c.Orchestrator.Start(r.Context(), body.CampaignID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	message := "campaign completed"
	if result.Interrupted {
		message = "campaign interrupted (status: " + string(result.Status) + ")"
	}
	respondOK(w, message, result)
}

func (c *CampaignController) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := c.Statistics.Compute(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "", stats)
}
