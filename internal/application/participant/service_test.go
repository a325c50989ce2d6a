package participant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/participant"
	"github.com/dataspace-connector/connector/internal/domain/participant/mocks"
	"github.com/dataspace-connector/connector/internal/infrastructure/memory"
)

func providerProps() participant.Props {
	return participant.Props{
		DID:        "did:web:provider.example",
		Name:       "Provider",
		Roles:      []participant.Role{participant.RoleDataProvider},
		TrustLevel: 2,
	}
}

func TestService_CreateAndFindByDID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewParticipantRepository(), zerolog.Nop())

	created, err := svc.Create(ctx, providerProps())
	require.NoError(t, err)

	found, err := svc.FindByDID(ctx, "did:web:provider.example")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	missing, err := svc.FindByDID(ctx, "did:web:nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestService_CreateRejectsDuplicateDID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewParticipantRepository(), zerolog.Nop())
	_, err := svc.Create(ctx, providerProps())
	require.NoError(t, err)

	_, err = svc.Create(ctx, providerProps())

	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestService_CreateValidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewService(mocks.NewMockRepository(ctrl), zerolog.Nop())

	_, err := svc.Create(context.Background(), participant.Props{DID: "provider"})

	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestService_UpdateWithStaleRevision(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewParticipantRepository(), zerolog.Nop())
	created, err := svc.Create(ctx, providerProps())
	require.NoError(t, err)

	props := providerProps()
	props.Name = "Renamed"
	updated, err := svc.Update(ctx, created.ID, props, created.Revision)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.Revision+1, updated.Revision)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, created.ID, props, created.Revision)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestService_SetStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewParticipantRepository(), zerolog.Nop())
	created, err := svc.Create(ctx, providerProps())
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, created.ID, participant.StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, participant.StatusSuspended, updated.Status)

	_, err = svc.SetStatus(ctx, created.ID, "GONE")
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestService_DeleteMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().FindByID(gomock.Any(), "p-1").Return(nil, nil)
	svc := NewService(repo, zerolog.Nop())

	err := svc.Delete(context.Background(), "p-1")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_ListPropagatesStorageErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().FindAll(gomock.Any()).Return(nil, apperr.StorageUnavailable(errors.New("down")))
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.FindByDID(context.Background(), "did:web:x")

	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}

type slowParticipants struct {
	participant.Repository
}

func (r slowParticipants) FindAll(ctx context.Context) ([]*participant.Participant, error) {
	time.Sleep(2 * time.Millisecond)
	return r.Repository.FindAll(ctx)
}

func TestService_ConcurrentCreateKeepsDIDUnique(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewParticipantRepository()
	svc := NewService(slowParticipants{repo}, zerolog.Nop())

	const callers = 8
	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(ctx, providerProps()); err == nil {
				atomic.AddInt32(&wins, 1)
			} else if errors.Is(err, apperr.ErrConflict) {
				atomic.AddInt32(&conflicts, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(callers-1), conflicts)
	assert.Equal(t, 1, repo.Len())
}
