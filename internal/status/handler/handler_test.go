package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verigate/internal/status/handler/mocks"
	"verigate/internal/status/models"
	"verigate/pkg/domain"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	r := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) TestGetStatus() {
	subject := domain.SubjectID(uuid.New())
	verifiedAt := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	s.Run("known subject", func() {
		s.service.EXPECT().Get(gomock.Any(), subject).Return(&models.VerificationState{
			SubjectID:      subject,
			Status:         domain.StatusVerified,
			LastVerifiedAt: verifiedAt,
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/user/"+subject.String()+"/status"))
		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[StatusResponse](s.T(), rr)
		s.Equal(subject.String(), body.UserID)
		s.Equal("verified", body.Status)
		s.True(verifiedAt.Equal(body.LastVerifiedAt))
	})

	s.Run("unknown subject is 404", func() {
		s.service.EXPECT().Get(gomock.Any(), subject).Return(nil, dErrors.New(dErrors.CodeNotFound, "User not found"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/user/"+subject.String()+"/status"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id is 400 without a lookup", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/user/not-a-uuid/status"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}
