package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/dto"
	"github.com/zotta/ledger-core/internal/handlers"
	"github.com/zotta/ledger-core/internal/platform/config"
	"github.com/zotta/ledger-core/internal/platform/tasks"
)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) SubmitEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) ApproveEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) PostEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) ReverseEntry(ctx context.Context, entryID string, reason string, effectiveDate time.Time, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, reason, effectiveDate, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}
func (m *MockJournalService) ListEntries(ctx context.Context, limit int, offset int) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock AnomalyService ---
type MockAnomalyService struct {
	mock.Mock
}

func (m *MockAnomalyService) Detect(ctx context.Context, entryID string) ([]domain.Anomaly, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Anomaly), args.Error(1)
}
func (m *MockAnomalyService) Review(ctx context.Context, anomalyID string, action string, userID string) (*domain.Anomaly, error) {
	args := m.Called(ctx, anomalyID, action, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Anomaly), args.Error(1)
}
func (m *MockAnomalyService) ListOpen(ctx context.Context, limit int, offset int) ([]domain.Anomaly, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Anomaly), args.Error(1)
}

var _ portssvc.AnomalySvcFacade = (*MockAnomalyService)(nil)

// --- Test Suite ---
type JournalHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockJournalService *MockJournalService
	mockAnomalyService *MockAnomalyService
}

func (suite *JournalHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.mockJournalService = new(MockJournalService)
	suite.mockAnomalyService = new(MockAnomalyService)

	// Workers are never started, so enqueued anomaly scans stay queued and
	// the mocks only see handler-driven calls.
	dispatcher := tasks.NewDispatcher(tasks.Config{})

	services := &portssvc.ServiceContainer{
		Journal: suite.mockJournalService,
		Anomaly: suite.mockAnomalyService,
	}
	handlers.RegisterRoutes(suite.router, &config.Config{IsProduction: true}, services, dispatcher)
}

func (suite *JournalHandlerTestSuite) performRequest(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "user-1")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func sampleEntry(status domain.EntryStatus) *domain.JournalEntry {
	return &domain.JournalEntry{
		EntryID:      uuid.NewString(),
		EntryNumber:  "JE-000042",
		Status:       status,
		SourceType:   domain.SourceManual,
		CurrencyCode: "EUR",
		TotalDebits:  decimal.NewFromInt(100),
		TotalCredits: decimal.NewFromInt(100),
		Version:      1,
	}
}

func (suite *JournalHandlerTestSuite) TestCreateEntryReturnsCreated() {
	entry := sampleEntry(domain.EntryDraft)
	suite.mockJournalService.On("CreateEntry", mock.Anything, mock.AnythingOfType("dto.CreateEntryRequest"), "user-1").
		Return(entry, nil).Once()

	body := dto.CreateEntryRequest{
		Description:     "Funding entry",
		TransactionDate: time.Now().UTC(),
		EffectiveDate:   time.Now().UTC(),
		CurrencyCode:    "EUR",
		Lines: []dto.CreateLineRequest{
			{AccountID: uuid.NewString(), DebitAmount: decimal.NewFromInt(100)},
			{AccountID: uuid.NewString(), CreditAmount: decimal.NewFromInt(100)},
		},
	}
	w := suite.performRequest(http.MethodPost, "/api/v1/journal-entries", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("JE-000042", resp.EntryNumber)
	suite.Equal(domain.EntryDraft, resp.Status)
	suite.mockJournalService.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestCreateEntryRejectsMalformedBody() {
	w := suite.performRequest(http.MethodPost, "/api/v1/journal-entries", map[string]any{
		"description": "missing everything else",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockJournalService.AssertNotCalled(suite.T(), "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestCreateEntryMapsUnbalancedToBadRequest() {
	suite.mockJournalService.On("CreateEntry", mock.Anything, mock.Anything, "user-1").
		Return(nil, apperrors.ErrValidation).Once()

	body := dto.CreateEntryRequest{
		Description:     "Unbalanced",
		TransactionDate: time.Now().UTC(),
		EffectiveDate:   time.Now().UTC(),
		CurrencyCode:    "EUR",
		Lines: []dto.CreateLineRequest{
			{AccountID: uuid.NewString(), DebitAmount: decimal.NewFromInt(100)},
			{AccountID: uuid.NewString(), CreditAmount: decimal.NewFromInt(99)},
		},
	}
	w := suite.performRequest(http.MethodPost, "/api/v1/journal-entries", body)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *JournalHandlerTestSuite) TestGetEntryNotFound() {
	suite.mockJournalService.On("GetEntryByID", mock.Anything, "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/journal-entries/missing", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *JournalHandlerTestSuite) TestSubmitOnPostedEntryMapsToConflict() {
	entry := sampleEntry(domain.EntryPosted)
	stateErr := &apperrors.StateTransitionError{
		EntryID:   entry.EntryID,
		Current:   string(domain.EntryPosted),
		Requested: string(domain.EntrySubmitted),
	}
	suite.mockJournalService.On("SubmitEntry", mock.Anything, entry.EntryID, "user-1").
		Return(nil, stateErr).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/journal-entries/"+entry.EntryID+"/submit", nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Contains(w.Body.String(), "POSTED")
}

func (suite *JournalHandlerTestSuite) TestPostEntryReturnsPostedEntry() {
	entry := sampleEntry(domain.EntryPosted)
	suite.mockJournalService.On("PostEntry", mock.Anything, entry.EntryID, "user-1").
		Return(entry, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/journal-entries/"+entry.EntryID+"/post", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.EntryPosted, resp.Status)
}

func (suite *JournalHandlerTestSuite) TestReverseEntryRequiresReason() {
	entryID := uuid.NewString()

	w := suite.performRequest(http.MethodPost, "/api/v1/journal-entries/"+entryID+"/reverse", map[string]any{
		"effectiveDate": time.Now().UTC(),
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockJournalService.AssertNotCalled(suite.T(), "ReverseEntry",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestReverseEntryReturnsReversalEntry() {
	original := sampleEntry(domain.EntryPosted)
	reversal := sampleEntry(domain.EntryPosted)
	reversal.SourceType = domain.SourceReversal
	reversal.OriginalEntryID = &original.EntryID

	suite.mockJournalService.On("ReverseEntry",
		mock.Anything, original.EntryID, "fat finger", mock.AnythingOfType("time.Time"), "user-1").
		Return(reversal, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/journal-entries/"+original.EntryID+"/reverse", dto.ReverseEntryRequest{
		Reason:        "fat finger",
		EffectiveDate: time.Now().UTC(),
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.SourceReversal, resp.SourceType)
	suite.Require().NotNil(resp.OriginalEntryID)
	suite.Equal(original.EntryID, *resp.OriginalEntryID)
}

func TestJournalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}
