package access_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/content"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/ledger"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/producer"
	"github.com/magabrotheeeer/tutor-platform/internal/services/access"
)

type ProducerMock struct {
	mock.Mock
}

func (m *ProducerMock) Generate(ctx context.Context, req models.ContentRequest) (*models.ContentArtifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContentArtifact), args.Error(1)
}

type LedgerMock struct {
	mock.Mock
}

func (m *LedgerMock) Commit(ctx context.Context, s entitlement.Session, cost int, reason string) (models.User, error) {
	args := m.Called(ctx, s, cost, reason)
	return args.Get(0).(models.User), args.Error(1)
}

type ActivityMock struct {
	mock.Mock
}

func (m *ActivityMock) Record(ctx context.Context, u models.User, action, details string) {
	m.Called(ctx, u, action, details)
}

// deductRepo условное списание в памяти, как в хранилище пользователей.
type deductRepo struct {
	credits map[string]int
}

func (r *deductRepo) DeductCredits(_ context.Context, uid string, cost int, _ string) (int, bool, error) {
	if r.credits[uid] < cost {
		return r.credits[uid], false, nil
	}
	r.credits[uid] -= cost
	return r.credits[uid], true, nil
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func price(p int) *int { return &p }

func request(ct models.ContentType) models.ContentRequest {
	return models.ContentRequest{
		Board:        "CBSE",
		ClassLevel:   "10",
		Subject:      "Physics",
		ChapterID:    "ch-7",
		ChapterTitle: "Light",
		Type:         ct,
	}
}

type fixture struct {
	local    *content.MemoryStore
	remote   *content.MemoryStore
	resolver *content.Resolver
	producer *ProducerMock
	activity *ActivityMock
	repo     *deductRepo
	svc      *access.Service
}

func newFixture() *fixture {
	f := &fixture{
		local:    content.NewMemoryStore(),
		remote:   content.NewMemoryStore(),
		producer: new(ProducerMock),
		activity: new(ActivityMock),
		repo:     &deductRepo{credits: map[string]int{}},
	}
	log := newNoopLogger()
	f.resolver = content.NewResolver(log, f.local, f.remote)
	l := ledger.New(f.repo, nil, log)
	f.svc = access.New(f.resolver, f.producer, l, f.activity,
		entitlement.NewEvaluator(func() time.Time { return now }), log)
	return f
}

func (f *fixture) student(uid string, credits int) entitlement.Session {
	f.repo.credits[uid] = credits
	return entitlement.Session{User: models.User{UID: uid, Role: models.RoleStudent, Credits: credits, SubscriptionTier: models.TierNone}}
}

func TestOpen_SubscriptionOverridesPrice(t *testing.T) {
	f := newFixture()
	req := request(models.ContentNotesPremium)
	require.NoError(t, f.remote.Set(context.Background(), content.Key(req), &models.ContentArtifact{Title: "Light", Price: price(10)}))

	tomorrow := now.Add(24 * time.Hour)
	session := f.student("u1", 0)
	session.User.SubscriptionTier = models.TierMonthly
	session.User.SubscriptionEndDate = &tomorrow

	f.activity.On("Record", mock.Anything, mock.Anything, activity.ActionContentGen, mock.Anything).Once()

	res, err := f.svc.Open(context.Background(), session, req)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Cost)
	assert.True(t, res.Decision.Allowed)
	assert.Equal(t, "Light", res.Artifact.Title)
	f.producer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestOpen_InsufficientCreditsBeforeProduction(t *testing.T) {
	f := newFixture()
	req := request(models.ContentMCQAnalysis)
	require.NoError(t, f.local.Set(context.Background(), content.Key(req), &models.ContentArtifact{Title: "MCQ", Price: price(7)}))

	session := f.student("u1", 5)
	_, err := f.svc.Open(context.Background(), session, req)

	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
	assert.Equal(t, 5, f.repo.credits["u1"])
	f.producer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	f.activity.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOpen_ChargesPricedContent(t *testing.T) {
	f := newFixture()
	req := request(models.ContentMCQAnalysis)
	require.NoError(t, f.local.Set(context.Background(), content.Key(req), &models.ContentArtifact{Title: "MCQ", Price: price(7)}))
	f.activity.On("Record", mock.Anything, mock.Anything, activity.ActionContentGen, "Opened MCQ_ANALYSIS for Light").Once()

	res, err := f.svc.Open(context.Background(), f.student("u1", 10), req)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Cost)
	assert.Equal(t, 3, res.User.Credits)
	assert.Equal(t, 3, f.repo.credits["u1"])
	assert.Equal(t, "local", res.Source)
	assert.False(t, res.Decision.Allowed)
	f.activity.AssertExpectations(t)
}

func TestOpen_MissGeneratesAndPersists(t *testing.T) {
	f := newFixture()
	req := request(models.ContentNotesSimple)
	f.producer.On("Generate", mock.Anything, req).Return(&models.ContentArtifact{Title: "Light", Content: "text"}, nil).Once()
	f.activity.On("Record", mock.Anything, mock.Anything, activity.ActionContentGen, mock.Anything).Once()

	res, err := f.svc.Open(context.Background(), f.student("u1", 0), req)
	require.NoError(t, err)
	assert.Equal(t, access.SourceProducer, res.Source)
	assert.Equal(t, models.ContentNotesSimple, res.Artifact.Type)

	stored, ok, err := f.remote.Get(context.Background(), content.Key(req))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "text", stored.Content)

	// второе открытие берётся из кэша, генератор не вызывается повторно
	f.activity.On("Record", mock.Anything, mock.Anything, activity.ActionContentGen, mock.Anything).Once()
	res, err = f.svc.Open(context.Background(), f.student("u1", 0), req)
	require.NoError(t, err)
	assert.Equal(t, "local", res.Source)
	f.producer.AssertExpectations(t)
}

func TestOpen_ProducerFailureCostsNothing(t *testing.T) {
	f := newFixture()
	req := request(models.ContentNotesSimple)
	f.producer.On("Generate", mock.Anything, req).
		Return(nil, &producer.ProducerError{StatusCode: 500, Err: errors.New("boom")}).Once()

	_, err := f.svc.Open(context.Background(), f.student("u1", 4), req)

	require.ErrorIs(t, err, access.ErrProducer)
	var perr *producer.ProducerError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, 4, f.repo.credits["u1"])
	assert.Zero(t, f.local.Len())
}

func TestOpen_GeneratedPriceAppliesToLaterOpens(t *testing.T) {
	f := newFixture()
	req := request(models.ContentMCQSimple)
	f.producer.On("Generate", mock.Anything, req).Return(&models.ContentArtifact{Title: "q", Price: price(3)}, nil).Once()
	f.activity.On("Record", mock.Anything, mock.Anything, activity.ActionContentGen, mock.Anything).Once()

	res, err := f.svc.Open(context.Background(), f.student("u1", 1), req)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Cost)
	assert.Equal(t, access.SourceProducer, res.Source)
	assert.Equal(t, 1, f.repo.credits["u1"])

	// повторное открытие уже видит цену и отказывает до генерации
	_, err = f.svc.Open(context.Background(), f.student("u1", 1), req)
	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
	assert.Equal(t, 1, f.repo.credits["u1"])
	f.producer.AssertExpectations(t)
}

func TestOpen_ConcurrentDrainRejected(t *testing.T) {
	f := newFixture()
	req := request(models.ContentMCQAnalysis)
	require.NoError(t, f.local.Set(context.Background(), content.Key(req), &models.ContentArtifact{Price: price(7)}))

	session := f.student("u1", 10)
	// другой запрос уже потратил кредиты, сессия об этом не знает
	f.repo.credits["u1"] = 2

	_, err := f.svc.Open(context.Background(), session, req)
	assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
	assert.Equal(t, 2, f.repo.credits["u1"])
}

func TestOpen_AdminAndImpersonationNeverCharged(t *testing.T) {
	f := newFixture()
	req := request(models.ContentPDFPremium)
	require.NoError(t, f.local.Set(context.Background(), content.Key(req), &models.ContentArtifact{Price: price(50)}))
	f.activity.On("Record", mock.Anything, mock.Anything, activity.ActionContentGen, mock.Anything).Twice()

	admin := models.User{UID: "a1", Role: models.RoleAdmin}
	res, err := f.svc.Open(context.Background(), entitlement.Session{User: admin}, req)
	require.NoError(t, err)
	assert.Zero(t, res.Cost)

	impersonated := f.student("u1", 0)
	impersonated.Impersonator = &admin
	res, err = f.svc.Open(context.Background(), impersonated, req)
	require.NoError(t, err)
	assert.Zero(t, res.Cost)
	assert.Equal(t, 0, res.User.Credits)
	assert.False(t, res.Decision.Allowed)
}

func TestOpen_UnknownTypeRejected(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Open(context.Background(), f.student("u1", 0), request("DAILY_QUIZ"))
	assert.ErrorIs(t, err, access.ErrInvalidRequest)
}

func TestOpen_SeniorClassRequiresStream(t *testing.T) {
	f := newFixture()
	req := request(models.ContentPDFFree)
	req.ClassLevel = "11"

	_, err := f.svc.Open(context.Background(), f.student("u1", 0), req)
	assert.ErrorIs(t, err, access.ErrInvalidRequest)
	f.producer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestOpen_CommitErrorPropagated(t *testing.T) {
	local := content.NewMemoryStore()
	req := request(models.ContentMCQAnalysis)
	require.NoError(t, local.Set(context.Background(), content.Key(req), &models.ContentArtifact{Price: price(1)}))

	l := new(LedgerMock)
	l.On("Commit", mock.Anything, mock.Anything, 1, activity.ActionContentGen).Return(models.User{}, errors.New("db down")).Once()
	svc := access.New(content.NewResolver(newNoopLogger(), local), new(ProducerMock), l, new(ActivityMock),
		entitlement.NewEvaluator(func() time.Time { return now }), newNoopLogger())

	_, err := svc.Open(context.Background(), entitlement.Session{User: models.User{UID: "u", Credits: 3}}, req)
	assert.Error(t, err)
	l.AssertExpectations(t)
}

func TestProfile(t *testing.T) {
	f := newFixture()
	end := now.Add(36 * time.Hour)
	admin := models.User{UID: "a1", Username: "root", Role: models.RoleAdmin}
	session := entitlement.Session{
		User:         models.User{UID: "u1", SubscriptionTier: models.TierYearly, SubscriptionEndDate: &end},
		Impersonator: &admin,
	}

	p := f.svc.Profile(context.Background(), session)
	assert.Equal(t, models.AccessUltra, p.AccessLevel)
	assert.True(t, p.Active)
	assert.Equal(t, 2, p.DaysRemaining)
	assert.Equal(t, "root", p.Impersonator)
}
