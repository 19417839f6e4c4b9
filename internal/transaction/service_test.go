package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/manekat/internal/database"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

func newService(t *testing.T) (*transaction.Service, *transaction.MockRepository, *transaction.MockConfigSource) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	cfg := transaction.NewMockConfigSource(ctrl)

	svc := transaction.NewService(repo, cfg,
		transaction.WithClock(func() time.Time { return now }),
		transaction.WithRetry(database.RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond}),
	)

	return svc, repo, cfg
}

func TestService_Submit(t *testing.T) {
	type testCase struct {
		name      string
		candidate func() transaction.Candidate
		setupMock func(repo *transaction.MockRepository, cfg *transaction.MockConfigSource)
		wantErr   bool
	}

	tests := []testCase{
		{
			name:      "Success",
			candidate: validCandidate,
			setupMock: func(repo *transaction.MockRepository, cfg *transaction.MockConfigSource) {
				cfg.EXPECT().Current(gomock.Any()).Return(masterConfig(), nil)
				repo.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						assert.NotEqual(t, uuid.Nil, tx.ID)
						assert.Equal(t, transaction.StatusPending, tx.Status)
						return nil
					})
			},
		},
		{
			name:      "RetriesTransientFailureWithSameID",
			candidate: validCandidate,
			setupMock: func(repo *transaction.MockRepository, cfg *transaction.MockConfigSource) {
				cfg.EXPECT().Current(gomock.Any()).Return(masterConfig(), nil)

				var firstID uuid.UUID

				gomock.InOrder(
					repo.EXPECT().
						CreateTransaction(gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
							firstID = tx.ID
							return database.Wrap("creating transaction", errors.New("connection reset"))
						}),
					repo.EXPECT().
						CreateTransaction(gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
							assert.Equal(t, firstID, tx.ID)
							return nil
						}),
				)
			},
		},
		{
			name: "InvalidNeverReachesStore",
			candidate: func() transaction.Candidate {
				c := validCandidate()
				c.Amount = decimal.Zero

				return c
			},
			setupMock: func(_ *transaction.MockRepository, cfg *transaction.MockConfigSource) {
				cfg.EXPECT().Current(gomock.Any()).Return(masterConfig(), nil)
			},
			wantErr: true,
		},
		{
			name:      "RepoError",
			candidate: validCandidate,
			setupMock: func(repo *transaction.MockRepository, cfg *transaction.MockConfigSource) {
				cfg.EXPECT().Current(gomock.Any()).Return(masterConfig(), nil)
				repo.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					Return(errors.New("permission denied"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, cfg := newService(t)
			tt.setupMock(repo, cfg)

			got, err := svc.Submit(context.Background(), tt.candidate())

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, transaction.StatusPending, got.Status)
		})
	}
}

func TestService_Decide(t *testing.T) {
	id := uuid.New()

	record := func(status transaction.Status) *transaction.Transaction {
		return &transaction.Transaction{ID: id, Amount: 50000, Type: transaction.TypeDeposit, Status: status}
	}

	type testCase struct {
		name       string
		approve    bool
		setupMock  func(m *transaction.MockRepository)
		wantStatus transaction.Status
		wantErr    error
	}

	tests := []testCase{
		{
			name:    "ApprovePending",
			approve: true,
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusPending), nil)
				m.EXPECT().UpdateStatus(gomock.Any(), id, transaction.StatusApproved, "admin", now).Return(true, nil)
			},
			wantStatus: transaction.StatusApproved,
		},
		{
			name: "RejectPending",
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusPending), nil)
				m.EXPECT().UpdateStatus(gomock.Any(), id, transaction.StatusRejected, "admin", now).Return(true, nil)
			},
			wantStatus: transaction.StatusRejected,
		},
		{
			name:    "RepeatApprovalIsNoop",
			approve: true,
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusApproved), nil)
			},
			wantStatus: transaction.StatusApproved,
		},
		{
			name: "RejectApproved",
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusApproved), nil)
			},
			wantErr: transaction.ErrInvalidTransition,
		},
		{
			name:    "LostRaceToOppositeDecision",
			approve: true,
			setupMock: func(m *transaction.MockRepository) {
				gomock.InOrder(
					m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusPending), nil),
					m.EXPECT().UpdateStatus(gomock.Any(), id, transaction.StatusApproved, "admin", now).Return(false, nil),
					m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusRejected), nil),
				)
			},
			wantErr: transaction.ErrInvalidTransition,
		},
		{
			name:    "LostRaceToSameDecision",
			approve: true,
			setupMock: func(m *transaction.MockRepository) {
				gomock.InOrder(
					m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusPending), nil),
					m.EXPECT().UpdateStatus(gomock.Any(), id, transaction.StatusApproved, "admin", now).Return(false, nil),
					m.EXPECT().GetTransaction(gomock.Any(), id).Return(record(transaction.StatusApproved), nil),
				)
			},
			wantStatus: transaction.StatusApproved,
		},
		{
			name:    "NotFound",
			approve: true,
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().GetTransaction(gomock.Any(), id).Return(nil, transaction.ErrNotFound)
			},
			wantErr: transaction.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newService(t)
			tt.setupMock(repo)

			var (
				got *transaction.Transaction
				err error
			)

			if tt.approve {
				got, err = svc.Approve(context.Background(), id, "admin")
			} else {
				got, err = svc.Reject(context.Background(), id, "admin")
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, int64(50000), got.Amount)
		})
	}
}

func TestService_GetProof(t *testing.T) {
	svc, repo, _ := newService(t)
	id := uuid.New()

	repo.EXPECT().GetTransaction(gomock.Any(), id).
		Return(&transaction.Transaction{ID: id, ProofImage: pngProof}, nil)

	img, err := svc.GetProof(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)
}

func TestService_List(t *testing.T) {
	svc, repo, _ := newService(t)
	status := transaction.StatusPending
	filter := transaction.ListFilter{Status: &status}

	repo.EXPECT().
		ListTransactions(gomock.Any(), filter).
		Return([]*transaction.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	got, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_PurgeRejected(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		svc, _, _ := newService(t)

		n, err := svc.PurgeRejected(context.Background(), 0)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Cutoff", func(t *testing.T) {
		svc, repo, _ := newService(t)

		repo.EXPECT().PurgeRejected(gomock.Any(), now.Add(-30*24*time.Hour)).Return(int64(3), nil)

		n, err := svc.PurgeRejected(context.Background(), 30*24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}
