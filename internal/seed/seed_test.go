package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

type mockCareerSeedStore struct {
	careers []models.Career
	creates int
}

func (m *mockCareerSeedStore) List(ctx context.Context) ([]models.Career, error) {
	return m.careers, nil
}

func (m *mockCareerSeedStore) Create(ctx context.Context, career *models.Career) error {
	m.careers = append(m.careers, *career)
	m.creates++
	return nil
}

type mockSubjectSeedStore struct {
	subjects []models.Subject
	creates  int
}

func (m *mockSubjectSeedStore) List(ctx context.Context) ([]models.Subject, error) {
	return m.subjects, nil
}

func (m *mockSubjectSeedStore) Create(ctx context.Context, subject *models.Subject) error {
	m.subjects = append(m.subjects, *subject)
	m.creates++
	return nil
}

func TestSeederPopulatesEmptyCatalog(t *testing.T) {
	careers := &mockCareerSeedStore{}
	subjects := &mockSubjectSeedStore{}

	require.NoError(t, New(careers, subjects, nil).Run(context.Background()))

	assert.NotEmpty(t, careers.careers)
	assert.NotEmpty(t, subjects.subjects)
	for _, c := range careers.careers {
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Name)
	}
	for _, s := range subjects.subjects {
		assert.Positive(t, s.ID)
		assert.NotEmpty(t, s.Name)
	}
}

func TestSeederSkipsPopulatedTables(t *testing.T) {
	careers := &mockCareerSeedStore{careers: []models.Career{{ID: "ISC", Name: "Sistemas"}}}
	subjects := &mockSubjectSeedStore{subjects: []models.Subject{{ID: 1, Name: "Calculo Diferencial"}}}

	require.NoError(t, New(careers, subjects, nil).Run(context.Background()))

	assert.Zero(t, careers.creates)
	assert.Zero(t, subjects.creates)
	assert.Len(t, careers.careers, 1)
	assert.Len(t, subjects.subjects, 1)
}

func TestSeederRunIsIdempotent(t *testing.T) {
	careers := &mockCareerSeedStore{}
	subjects := &mockSubjectSeedStore{}
	seeder := New(careers, subjects, nil)

	require.NoError(t, seeder.Run(context.Background()))
	firstCareers := careers.creates
	firstSubjects := subjects.creates

	require.NoError(t, seeder.Run(context.Background()))
	assert.Equal(t, firstCareers, careers.creates)
	assert.Equal(t, firstSubjects, subjects.creates)
}
