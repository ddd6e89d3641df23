package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"verigate/internal/handshake/store"
	"verigate/internal/session"
	statusModels "verigate/internal/status/models"
	statusService "verigate/internal/status/service"
	statusStore "verigate/internal/status/store"
	"verigate/internal/verifier"
	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/requestcontext"
)

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, statusModels.Decision) (*statusModels.AuditRecord, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "failed to save verification status")
}

type ServiceSuite struct {
	suite.Suite
	store    *store.InMemoryStore
	subjects *statusStore.InMemorySubjectStore
	ledger   *statusStore.InMemoryLedger
	sessions *session.Issuer
	svc      *Service
	ctx      context.Context
	now      time.Time
	subject  domain.SubjectID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.now = time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.subject = domain.SubjectID(uuid.New())
	s.store = store.NewInMemory(100)
	s.subjects = statusStore.NewInMemorySubjects()
	s.ledger = statusStore.NewInMemoryLedger()
	s.sessions = session.NewIssuer("k", time.Hour, session.WithClock(func() time.Time { return s.now }))
	recorder := statusService.New(s.subjects, s.ledger, logger)
	s.svc = New(s.store, verifier.NewMock("http://api.test/auth/callback"), recorder, logger,
		WithTTL(15*time.Minute),
		WithFallbackBase("http://api.test"),
		WithSessionIssuer(s.sessions),
	)
}

func (s *ServiceSuite) start() url.Values {
	raw, err := s.svc.Start(s.ctx, s.subject)
	s.Require().NoError(err)
	u, err := url.Parse(raw)
	s.Require().NoError(err)
	return u.Query()
}

func (s *ServiceSuite) TestStartIssuesResolvableToken() {
	q := s.start()
	s.Equal(s.subject.String(), q.Get("user_id"))

	got, err := s.svc.Resolve(s.ctx, q.Get("state"))
	s.Require().NoError(err)
	s.Equal(s.subject, got)
}

func (s *ServiceSuite) TestDoubleResolveIsNotFound() {
	token := s.start().Get("state")

	_, err := s.svc.Resolve(s.ctx, token)
	s.Require().NoError(err)

	_, err = s.svc.Resolve(s.ctx, token)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestResolveAfterTTLIsNotFound() {
	token := s.start().Get("state")

	later := requestcontext.WithTime(context.Background(), s.now.Add(16*time.Minute))
	_, err := s.svc.Resolve(later, token)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCallbackVerified() {
	q := s.start()

	outcome := s.svc.Callback(s.ctx, q)
	s.Equal(domain.StatusVerified, outcome.Status)
	s.Require().NotEmpty(outcome.SessionToken)

	subject, err := s.sessions.Validate(outcome.SessionToken)
	s.Require().NoError(err)
	s.Equal(s.subject, subject)

	state, err := s.subjects.Get(s.ctx, s.subject)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, state.Status)
	s.Equal("mock_verification", state.AttestationRef)
	s.Equal("mock", state.ModelVersion)

	recs, err := s.ledger.ListBySubject(s.ctx, s.subject)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal([]string{verifier.ReasonMockFlow}, recs[0].ReasonCodes)
	s.Equal(verifier.ScoreBinPassed, recs[0].ScoreBin)
}

func (s *ServiceSuite) TestCallbackFailedVerificationIsRecorded() {
	q := s.start()
	q.Set("ok", "0")

	outcome := s.svc.Callback(s.ctx, q)
	s.Equal(domain.StatusNonVerified, outcome.Status)
	s.Empty(outcome.SessionToken)

	state, err := s.subjects.Get(s.ctx, s.subject)
	s.Require().NoError(err)
	s.Equal(domain.StatusNonVerified, state.Status)
}

func (s *ServiceSuite) TestCallbackReplayIsNonVerified() {
	q := s.start()
	s.Equal(domain.StatusVerified, s.svc.Callback(s.ctx, q).Status)

	replay := s.svc.Callback(s.ctx, q)
	s.Equal(domain.StatusNonVerified, replay.Status)

	recs, err := s.ledger.ListBySubject(s.ctx, s.subject)
	s.Require().NoError(err)
	s.Len(recs, 1, "a replayed callback writes nothing")
}

func (s *ServiceSuite) TestCallbackWithoutState() {
	outcome := s.svc.Callback(s.ctx, url.Values{"ok": {"1"}})
	s.Equal(domain.StatusNonVerified, outcome.Status)
}

func (s *ServiceSuite) TestCallbackPersistenceFailureDegrades() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(s.store, verifier.NewMock("http://api.test/auth/callback"), failingRecorder{}, logger,
		WithSessionIssuer(s.sessions))
	raw, err := svc.Start(s.ctx, s.subject)
	s.Require().NoError(err)
	u, _ := url.Parse(raw)

	outcome := svc.Callback(s.ctx, u.Query())
	s.Equal(domain.StatusNonVerified, outcome.Status)
	s.Empty(outcome.SessionToken)
}

type stalledRecorder struct{}

func (stalledRecorder) Record(ctx context.Context, _ statusModels.Decision) (*statusModels.AuditRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *ServiceSuite) TestCallbackRecordsAfterCallerCancels() {
	q := s.start()
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	outcome := s.svc.Callback(ctx, q)
	s.Equal(domain.StatusVerified, outcome.Status)

	recs, err := s.ledger.ListBySubject(s.ctx, s.subject)
	s.Require().NoError(err)
	s.Len(recs, 1)
}

func (s *ServiceSuite) TestCallbackStalledRecordDegrades() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(s.store, verifier.NewMock("http://api.test/auth/callback"), stalledRecorder{}, logger,
		WithSessionIssuer(s.sessions),
		WithRecordBudget(20*time.Millisecond),
	)
	raw, err := svc.Start(s.ctx, s.subject)
	s.Require().NoError(err)
	u, _ := url.Parse(raw)

	start := time.Now()
	outcome := svc.Callback(s.ctx, u.Query())
	s.Less(time.Since(start), time.Second)
	s.Equal(domain.StatusNonVerified, outcome.Status)
	s.Empty(outcome.SessionToken)
}

type brokenProvider struct{ verifier.Provider }

func (brokenProvider) StartURL(domain.SubjectID, string) (string, error) {
	return "", errors.New("provider misconfigured")
}

func (s *ServiceSuite) TestStartFallsBackWhenProviderFails() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(s.store, brokenProvider{verifier.NewMock("")}, failingRecorder{}, logger,
		WithFallbackBase("http://api.test"),
		WithTokenGenerator(func() string { return "fixed-token" }))

	raw, err := svc.Start(s.ctx, s.subject)
	s.Require().NoError(err)
	u, err := url.Parse(raw)
	s.Require().NoError(err)
	s.Equal("api.test", u.Host)
	s.Equal("/auth/callback", u.Path)
	s.Equal("fixed-token", u.Query().Get("state"))
}
