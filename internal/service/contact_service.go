package service

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/model"
	"github.com/unclebandit/zapcampanhas/internal/repository"
	"github.com/unclebandit/zapcampanhas/internal/utils"
)

type ContactService struct {
	Repo repository.ContactRepositoryInterface
}

type ContactInput struct {
	Name   string   `json:"nome" validate:"required,max=120"`
	Phone  string   `json:"telefone" validate:"required"`
	Email  string   `json:"email" validate:"omitempty,email"`
	Groups []string `json:"grupos"`
	Tags   []string `json:"tags"`
	Notes  string   `json:"observacoes" validate:"max=1000"`
}

func (in ContactInput) apply(c *model.Contact) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	phone := utils.Digits(in.Phone)
	if !utils.ValidPhone(phone) {
		return appErrors.Validation("telefone must have between 10 and 15 digits")
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Phone = phone
	c.Email = strings.TrimSpace(in.Email)
	c.Groups = cleanList(in.Groups)
	c.Tags = cleanList(in.Tags)
	c.Notes = in.Notes
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s *ContactService) Create(ctx context.Context, in ContactInput) (*model.Contact, error) {
	c := &model.Contact{}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) Update(ctx context.Context, id string, in ContactInput) (*model.Contact, error) {
	c, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) Get(ctx context.Context, id string) (*model.Contact, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

// List fetches contacts with pagination
func (s *ContactService) List(ctx context.Context, page, pageSize int, search string) ([]*model.Contact, map[string]int, error) {
	page, pageSize, offset := normalizePage(page, pageSize)
	contacts, total, err := s.Repo.List(ctx, offset, pageSize, strings.TrimSpace(search))
	if err != nil {
		return nil, nil, err
	}
	return contacts, pagination(page, pageSize, total), nil
}

func (s *ContactService) All(ctx context.Context) ([]*model.Contact, error) {
	return s.Repo.ListAll(ctx)
}
