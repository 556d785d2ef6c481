package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

type ContactController struct {
	ContactService *service.ContactService
	Location       *time.Location
}

// contactCSVRow is one line of the contacts export.
type contactCSVRow struct {
	Name      string `csv:"nome"`
	Phone     string `csv:"telefone"`
	Email     string `csv:"email"`
	Groups    string `csv:"grupos"`
	Tags      string `csv:"tags"`
	Notes     string `csv:"observacoes"`
	CreatedAt string `csv:"criadoEm"`
}

func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, pagination, err := c.ContactService.List(r.Context(),
		queryInt(r, "page"), queryInt(r, "page_size"), r.URL.Query().Get("busca"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: contacts, Pagination: pagination})
}

func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body service.ContactInput
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	contact, err := c.ContactService.Create(r.Context(), body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCreated(w, "contact created", contact)
}

func (c *ContactController) GetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := c.ContactService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "", contact)
}

func (c *ContactController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var body service.ContactInput
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	contact, err := c.ContactService.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "contact updated", contact)
}

func (c *ContactController) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := c.ContactService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, "contact deleted", nil)
}

// ExportContacts streams every contact as CSV.
func (c *ContactController) ExportContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := c.ContactService.All(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	rows := make([]*contactCSVRow, len(contacts))
	for i, ct := range contacts {
		rows[i] = c.csvRow(ct)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contatos.csv"`)
	if err := gocsv.Marshal(rows, w); err != nil {
		zap.L().Error("contacts export failed", zap.Error(err))
	}
}

func (c *ContactController) csvRow(ct *model.Contact) *contactCSVRow {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return &contactCSVRow{
		Name:      ct.Name,
		Phone:     ct.Phone,
		Email:     ct.Email,
		Groups:    strings.Join(ct.Groups, ";"),
		Tags:      strings.Join(ct.Tags, ";"),
		Notes:     ct.Notes,
		CreatedAt: ct.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
	}
}
