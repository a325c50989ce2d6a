package negotiation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
	"github.com/dataspace-connector/connector/internal/domain/event"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
	"github.com/dataspace-connector/connector/internal/domain/negotiation/mocks"
	"github.com/dataspace-connector/connector/internal/infrastructure/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *recorder) Publish(evt *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type admitFunc func(ctx context.Context, issuer string) error

func (f admitFunc) Admit(ctx context.Context, issuer string) error { return f(ctx, issuer) }

func TestService_RequestCreatesRequested(t *testing.T) {
	events := &recorder{}
	svc := NewService(memory.NewNegotiationRepository(), nil, events, DefaultRetries, zerolog.Nop())

	n, err := svc.Request(context.Background(), "did:web:consumer", nil)

	require.NoError(t, err)
	assert.Equal(t, negotiation.StateRequested, n.State)
	assert.Equal(t, "did:web:consumer", n.Issuer)
	assert.Equal(t, []event.Type{event.TypeNegotiationRequested}, events.types())
}

func TestService_RequestDeniedByAdmission(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	deny := admitFunc(func(context.Context, string) error { return apperr.Forbidden("no") })
	svc := NewService(repo, deny, nil, DefaultRetries, zerolog.Nop())

	_, err := svc.Request(context.Background(), "did:web:stranger", nil)

	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestService_GetMissing(t *testing.T) {
	svc := NewService(memory.NewNegotiationRepository(), nil, nil, DefaultRetries, zerolog.Nop())

	_, err := svc.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_TransitionHappyPath(t *testing.T) {
	ctx := context.Background()
	events := &recorder{}
	svc := NewService(memory.NewNegotiationRepository(), nil, events, DefaultRetries, zerolog.Nop())
	n, err := svc.Request(ctx, "did:web:consumer", nil)
	require.NoError(t, err)

	for _, s := range []negotiation.State{
		negotiation.StateOffered,
		negotiation.StateAccepted,
		negotiation.StateAgreed,
		negotiation.StateVerified,
		negotiation.StateFinalized,
	} {
		n, err = svc.Transition(ctx, n.ID, s)
		require.NoError(t, err)
		assert.Equal(t, s, n.State)
	}
	assert.Equal(t, int64(6), n.Revision)
	assert.Len(t, events.types(), 6)

	_, err = svc.Terminate(ctx, n.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestService_TransitionRejectsUnknownState(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := NewService(repo, nil, nil, DefaultRetries, zerolog.Nop())

	_, err := svc.Transition(context.Background(), "n-1", "PENDING")

	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestService_TransitionRetriesOnConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := NewService(repo, nil, nil, DefaultRetries, zerolog.Nop())
	stored := negotiation.New("did:web:consumer", nil)

	gomock.InOrder(
		repo.EXPECT().FindByID(gomock.Any(), stored.ID).Return(stored.Clone(), nil),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil, apperr.Conflict(negotiation.EntityName, stored.ID, "stale")),
		repo.EXPECT().FindByID(gomock.Any(), stored.ID).Return(stored.Clone(), nil),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, n *negotiation.Negotiation) (*negotiation.Negotiation, error) {
				out := n.Clone()
				out.Revision++
				return out, nil
			}),
	)

	saved, err := svc.Transition(context.Background(), stored.ID, negotiation.StateOffered)

	require.NoError(t, err)
	assert.Equal(t, negotiation.StateOffered, saved.State)
}

func TestService_TransitionReevaluatesAfterConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := NewService(repo, nil, nil, DefaultRetries, zerolog.Nop())
	stored := negotiation.New("did:web:consumer", nil)
	terminated, err := negotiation.Transition(stored, negotiation.StateTerminated)
	require.NoError(t, err)

	gomock.InOrder(
		repo.EXPECT().FindByID(gomock.Any(), stored.ID).Return(stored.Clone(), nil),
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil, apperr.Conflict(negotiation.EntityName, stored.ID, "stale")),
		repo.EXPECT().FindByID(gomock.Any(), stored.ID).Return(terminated, nil),
	)

	_, err = svc.Transition(context.Background(), stored.ID, negotiation.StateOffered)

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestService_TransitionGivesUpAfterRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := NewService(repo, nil, nil, 1, zerolog.Nop())
	stored := negotiation.New("did:web:consumer", nil)

	repo.EXPECT().FindByID(gomock.Any(), stored.ID).Return(stored.Clone(), nil).Times(2)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).
		Return(nil, apperr.Conflict(negotiation.EntityName, stored.ID, "stale")).Times(2)

	_, err := svc.Transition(context.Background(), stored.ID, negotiation.StateOffered)

	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestService_TransitionStorageFailureIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	svc := NewService(repo, nil, nil, DefaultRetries, zerolog.Nop())
	stored := negotiation.New("did:web:consumer", nil)

	repo.EXPECT().FindByID(gomock.Any(), stored.ID).Return(stored.Clone(), nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil, apperr.StorageUnavailable(errors.New("down")))

	_, err := svc.Transition(context.Background(), stored.ID, negotiation.StateOffered)

	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}

func TestService_ConcurrentTransitionsSerialize(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewNegotiationRepository(), nil, nil, 32, zerolog.Nop())
	n, err := svc.Request(ctx, "did:web:consumer", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(ctx, n.ID, negotiation.StateOffered)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, invalid int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apperr.IsKind(err, apperr.KindInvalidTransition):
			invalid++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, invalid)
}
