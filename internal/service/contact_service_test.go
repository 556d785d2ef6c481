package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/zapcampanhas/internal/errors"
	"github.com/unclebandit/zapcampanhas/internal/repository"
	"github.com/unclebandit/zapcampanhas/internal/service"
)

func TestContactCreateNormalisesInput(t *testing.T) {
	svc := &service.ContactService{Repo: repository.NewMemoryContactRepository()}

	c, err := svc.Create(context.Background(), service.ContactInput{
		Name:   "  Ana Souza ",
		Phone:  "+55 (11) 99999-0000",
		Groups: []string{"vip", " vip ", ""},
		Tags:   []string{"cliente"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Ana Souza", c.Name)
	assert.Equal(t, "5511999990000", c.Phone)
	assert.Equal(t, []string{"vip"}, c.Groups)
}

func TestContactValidation(t *testing.T) {
	svc := &service.ContactService{Repo: repository.NewMemoryContactRepository()}
	ctx := context.Background()

	cases := map[string]service.ContactInput{
		"no name":     {Phone: "11999990000"},
		"short phone": {Name: "Ana", Phone: "12345"},
		"long phone":  {Name: "Ana", Phone: "1234567890123456"},
		"bad email":   {Name: "Ana", Phone: "11999990000", Email: "ana@"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assert.Equal(t, http.StatusBadRequest, appErrors.HTTPStatus(err))
		})
	}
}

func TestContactUpdateAndDelete(t *testing.T) {
	svc := &service.ContactService{Repo: repository.NewMemoryContactRepository()}
	ctx := context.Background()

	c, err := svc.Create(ctx, service.ContactInput{Name: "Ana", Phone: "11999990000"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c.ID, service.ContactInput{Name: "Ana Paula", Phone: "11999990000", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Paula", updated.Name)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "missing", service.ContactInput{Name: "x", Phone: "11999990000"})
	assert.True(t, appErrors.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestContactListSearchAndPagination(t *testing.T) {
	svc := &service.ContactService{Repo: repository.NewMemoryContactRepository()}
	ctx := context.Background()

	for _, in := range []service.ContactInput{
		{Name: "Ana", Phone: "11999990001"},
		{Name: "Bruno", Phone: "11999990002"},
		{Name: "Mariana", Phone: "11999990003"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	found, p, err := svc.List(ctx, 1, 10, "ana")
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, 2, p["total_count"])

	byPhone, _, err := svc.List(ctx, 1, 10, "90002")
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, "Bruno", byPhone[0].Name)

	page, p, err := svc.List(ctx, 2, 2, "")
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 2, p["total_pages"])

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Ana", all[0].Name)
}
