//go:build integration_test || all_tests

package contact

import (
	"context"
	"testing"

	testingpkg "github.com/kdblegal/kdbweb/pkg/testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_SaveListDelete(t *testing.T) {
	repo := NewRepo(testingpkg.GetPostgresPool(t))
	ctx := context.Background()

	msg := &Message{
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Subject:   gofakeit.Sentence(3),
		Message:   gofakeit.Paragraph(1, 3, 10, " "),
		IP:        gofakeit.IPv4Address(),
		UserAgent: gofakeit.UserAgent(),
		Status:    StatusNew,
	}
	id, err := repo.Save(ctx, msg)
	require.NoError(t, err)
	require.Positive(t, id)

	messages, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, id, messages[0].ID)
	assert.Equal(t, msg.IP, messages[0].IP)
	assert.Equal(t, StatusNew, messages[0].Status)

	require.NoError(t, repo.Delete(ctx, id))
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)
}
