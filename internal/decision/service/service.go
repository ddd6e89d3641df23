// Package service runs the portal decision pipeline: rule chain, scorer,
// persistence, companion submission and the best-effort sink forward.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"verigate/internal/decision"
	"verigate/internal/decision/metrics"
	"verigate/internal/decision/ports"
	statusModels "verigate/internal/status/models"
	submissionModels "verigate/internal/submission/models"
	submissionService "verigate/internal/submission/service"
	"verigate/pkg/domain"
	"verigate/pkg/requestcontext"
)

const defaultScorerTimeout = 10 * time.Second

// StatusRecorder persists a decision to the registry and the ledger.
type StatusRecorder interface {
	Record(ctx context.Context, d statusModels.Decision) (*statusModels.AuditRecord, error)
}

// SubmissionTracker stores the companion submission record.
type SubmissionTracker interface {
	Track(ctx context.Context, in submissionService.TrackInput) (*submissionModels.Submission, error)
}

// Service decides portal submissions.
type Service struct {
	keys          ports.KeyChecker
	scorer        ports.Scorer
	recorder      StatusRecorder
	tracker       SubmissionTracker
	sessions      ports.SessionValidator
	status        ports.StatusReader
	sink          ports.Sink
	rules         []decision.Rule
	scorerTimeout time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	newSubjectID  func() domain.SubjectID

	forwards sync.WaitGroup
}

type Option func(*Service)

// WithScorerTimeout bounds the scorer call. Default 10s.
func WithScorerTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scorerTimeout = d
		}
	}
}

// WithSessionProof enables the trusted-session fast path.
// Without it the skip flag is always deferred to the scorer.
func WithSessionProof(sessions ports.SessionValidator, status ports.StatusReader) Option {
	return func(s *Service) {
		s.sessions = sessions
		s.status = status
	}
}

// WithSink forwards each decision to the metrics sink.
func WithSink(sink ports.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSubjectIDGenerator overrides the id assigned to anonymous submissions.
func WithSubjectIDGenerator(fn func() domain.SubjectID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newSubjectID = fn
		}
	}
}

func New(keys ports.KeyChecker, scorer ports.Scorer, recorder StatusRecorder, tracker SubmissionTracker, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		keys:          keys,
		scorer:        scorer,
		recorder:      recorder,
		tracker:       tracker,
		rules:         decision.DefaultRules,
		scorerTimeout: defaultScorerTimeout,
		logger:        logger,
		newSubjectID:  func() domain.SubjectID { return domain.SubjectID(uuid.New()) },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ValidateAPIKey reports whether key is in the privileged set.
func (s *Service) ValidateAPIKey(key string) bool {
	return s.keys.IsPrivileged(key)
}

// Submit decides in, persists the decision and records the submission.
// Only persistence failures are returned; scorer, tracker and sink problems
// degrade or are logged.
func (s *Service) Submit(ctx context.Context, in decision.Input) (*decision.SubmissionResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSubmitLatency(time.Since(start)) }()

	requestID := requestcontext.RequestID(ctx)
	if in.SubjectID.IsNil() {
		in.SubjectID = s.newSubjectID()
	}

	facts := decision.Facts{
		PrivilegedKey:   in.APIKey != "" && s.keys.IsPrivileged(in.APIKey),
		SessionVerified: s.sessionVerified(ctx, in),
	}
	if in.SkipVerification && !facts.SessionVerified && !facts.PrivilegedKey {
		s.logger.WarnContext(ctx, "skip verification requested without session proof",
			"request_id", requestID,
			"user_id", in.SubjectID.String(),
		)
	}

	out, ok := decision.Evaluate(s.rules, facts)
	if !ok {
		out = s.score(ctx, in)
	}

	// The scorer is the only cancellable step. Once a decision exists it is
	// persisted even if the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)

	rec, err := s.recorder.Record(persistCtx, statusModels.Decision{
		SubjectID:    in.SubjectID,
		Status:       out.Status,
		ReasonCodes:  out.ReasonCodes,
		ScoreBin:     out.ScoreBin,
		ModelVersion: string(out.Route),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementOutcome(string(out.Route), string(out.Status), rec.ReasonCodes)

	result := &decision.SubmissionResult{
		SubjectID:   in.SubjectID,
		Status:      out.Status,
		ScoreBin:    rec.ScoreBin,
		ReasonCodes: rec.ReasonCodes,
	}

	sub, err := s.tracker.Track(persistCtx, submissionService.TrackInput{
		SubjectID:      in.SubjectID,
		Description:    in.Problem,
		IsVerifiedUser: out.Status.IsVerified(),
		UserAgent:      in.UserAgent,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "submission tracking failed",
			"request_id", requestID,
			"user_id", in.SubjectID.String(),
			"error", err,
		)
	} else {
		result.SubmissionID = sub.ID
	}

	s.forward(ctx, rec)

	s.logger.InfoContext(ctx, "portal submission decided",
		"request_id", requestID,
		"user_id", in.SubjectID.String(),
		"route", out.Route,
		"status", out.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Drain waits for in-flight sink forwards or until ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.forwards.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sessionVerified checks the server-side proof behind a skip request: a valid
// session token for this subject plus a registry row that is verified now.
func (s *Service) sessionVerified(ctx context.Context, in decision.Input) bool {
	if !in.SkipVerification || in.SessionToken == "" || s.sessions == nil || s.status == nil {
		return false
	}
	subjectID, err := s.sessions.Validate(in.SessionToken)
	if err != nil {
		s.logger.InfoContext(ctx, "session proof rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return false
	}
	if subjectID != in.SubjectID {
		return false
	}
	verified, err := s.status.IsVerified(ctx, subjectID)
	if err != nil {
		s.logger.WarnContext(ctx, "session proof registry lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return false
	}
	return verified
}

func (s *Service) score(ctx context.Context, in decision.Input) decision.Outcome {
	scoreCtx, cancel := context.WithTimeout(ctx, s.scorerTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.scorer.Analyze(scoreCtx, in.ScorerText())
	if err == nil && errors.Is(scoreCtx.Err(), context.DeadlineExceeded) {
		// A late success still counts as a timeout.
		err = decision.NewScorerError(decision.ScorerTimeout, "deadline exceeded", scoreCtx.Err())
	}

	label := "ok"
	if err != nil {
		label = string(decision.ScorerErrorKindOf(err))
		s.logger.WarnContext(ctx, "scorer call failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", label,
			"error", err,
		)
	}
	s.metrics.ObserveScorerLatency(label, time.Since(start))
	return decision.Classify(result, err)
}

func (s *Service) forward(ctx context.Context, rec *statusModels.AuditRecord) {
	if s.sink == nil {
		return
	}
	event := decision.ForwardEvent{
		UserID:      rec.SubjectID.String(),
		Status:      string(rec.Status),
		ScoreBin:    rec.ScoreBin,
		ReasonCodes: rec.ReasonCodes,
	}
	fwdCtx := context.WithoutCancel(ctx)
	s.forwards.Go(func() {
		if err := s.sink.Forward(fwdCtx, rec.Status, event); err != nil {
			s.metrics.IncrementForward(string(rec.Status), "failed")
			s.logger.WarnContext(fwdCtx, "metrics sink forward failed",
				"request_id", requestcontext.RequestID(fwdCtx),
				"status", rec.Status,
				"error", err,
			)
			return
		}
		s.metrics.IncrementForward(string(rec.Status), "sent")
	})
}
