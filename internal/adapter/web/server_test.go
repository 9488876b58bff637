package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/billlink-backend/internal/domain"
	"github.com/simaogato/billlink-backend/internal/session"
	"github.com/simaogato/billlink-backend/internal/usecase/fetcher"
	"github.com/simaogato/billlink-backend/internal/usecase/wizard"
)

const (
	testBillID = "ea13618a-7738-4d9e-8ff6-e159f0809cc2"
	kasikorn   = "ธนาคารกสิกรไทย"
)

var errTransient = fmt.Errorf("connection reset by peer")

// MockBillRepository is a mock implementation of BillRepository for testing
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) GetByID(ctx context.Context, id string) (*domain.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) Create(ctx context.Context, bill *domain.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) List(ctx context.Context) ([]*domain.Bill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func noSleep(context.Context, time.Duration) error { return nil }

func testBill() *domain.Bill {
	due := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	return &domain.Bill{
		ID:      testBillID,
		Amount:  decimal.NewFromInt(15000),
		DueDate: &due,
	}
}

func newTestServer(t *testing.T, repo domain.BillRepository) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(store.Close)

	primary := fetcher.NewLoader(
		fetcher.New(repo, fetcher.PrimaryPolicy, fetcher.WithSleep(noSleep)),
		fetcher.WithDeferredSleep(noSleep),
	)
	step := fetcher.NewLoader(fetcher.New(repo, fetcher.StepPolicy, fetcher.WithSleep(noSleep)))

	srv, err := NewServer(primary, step, wizard.NewWizardService(store, nil), zap.NewNop(),
		WithClock(func() time.Time { return time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return srv.Handler()
}

// browser replays the session cookie like a single browser tab would
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
	referer string
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if b.referer != "" {
		req.Header.Set("Referer", b.referer)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		b.cookies = set
	}
	return w
}

var transactionCode = regexp.MustCompile(`id="transaction-code">([A-Z0-9-]+)<`)

func TestWizard_EndToEnd(t *testing.T) {
	mockRepo := new(MockBillRepository)
	mockRepo.On("GetByID", mock.Anything, testBillID).Return(testBill(), nil)

	b := &browser{t: t, handler: newTestServer(t, mockRepo)}

	// Viewing
	w := b.do(http.MethodGet, "/customer/"+testBillID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "฿ 15,000")
	assert.Contains(t, w.Body.String(), "31/12/2567")
	assert.Contains(t, w.Body.String(), "อีก 30 วันครบกำหนด")
	require.NotEmpty(t, b.cookies, "a session cookie must be issued")
	assert.Equal(t, SessionCookie, b.cookies[0].Name)

	// Viewing -> SelectingMethod
	w = b.do(http.MethodPost, "/customer/"+testBillID+"/next", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/customer/"+testBillID+"/payment-method", w.Header().Get("Location"))

	w = b.do(http.MethodGet, "/customer/"+testBillID+"/payment-method", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="15000"`)
	for _, bank := range domain.Banks {
		assert.Contains(t, w.Body.String(), bank)
	}

	// SelectingMethod -> DisplayingCode
	w = b.do(http.MethodPost, "/customer/"+testBillID+"/payment-method", url.Values{
		"amount": {"15000"},
		"bank":   {kasikorn},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/customer/"+testBillID+"/qr-payment", w.Header().Get("Location"))

	w = b.do(http.MethodGet, "/customer/"+testBillID+"/qr-payment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "฿ 15,000")
	assert.Contains(t, w.Body.String(), kasikorn)
	first := transactionCode.FindStringSubmatch(w.Body.String())
	require.Len(t, first, 2)

	w = b.do(http.MethodGet, "/customer/"+testBillID+"/qr-payment", nil)
	second := transactionCode.FindStringSubmatch(w.Body.String())
	require.Len(t, second, 2)
	assert.NotEqual(t, first[1], second[1], "every page load shows a fresh transaction code")
}

func TestWizard_IncompleteSelectionIsRejected(t *testing.T) {
	cases := []url.Values{
		{"amount": {""}, "bank": {""}},
		{"amount": {"15000"}, "bank": {""}},
		{"amount": {""}, "bank": {kasikorn}},
	}

	for _, form := range cases {
		mockRepo := new(MockBillRepository)
		mockRepo.On("GetByID", mock.Anything, testBillID).Return(testBill(), nil)
		b := &browser{t: t, handler: newTestServer(t, mockRepo)}

		w := b.do(http.MethodPost, "/customer/"+testBillID+"/payment-method", form)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), wizard.IncompleteSelectionMessage)

		// Nothing was stored, so the code page falls back to the bill itself
		w = b.do(http.MethodGet, "/customer/"+testBillID+"/qr-payment", nil)
		assert.NotContains(t, w.Body.String(), `id="selected-bank"`)
	}
}

func TestBillPage_ShortIdentifierMakesNoLookup(t *testing.T) {
	mockRepo := new(MockBillRepository)
	b := &browser{t: t, handler: newTestServer(t, mockRepo)}

	for _, path := range []string{"/customer/abc", "/customer/abc/payment-method", "/customer/abc/qr-payment"} {
		w := b.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "ไม่พบข้อมูลบิล")
	}

	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestBillPage_MultibyteShortIdentifierMakesNoLookup(t *testing.T) {
	mockRepo := new(MockBillRepository)
	b := &browser{t: t, handler: newTestServer(t, mockRepo)}

	w := b.do(http.MethodGet, "/customer/"+url.PathEscape("กขคง"), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestWizard_PaddedIdentifierIsTrimmedEverywhere(t *testing.T) {
	mockRepo := new(MockBillRepository)
	mockRepo.On("GetByID", mock.Anything, testBillID).Return(testBill(), nil)
	b := &browser{t: t, handler: newTestServer(t, mockRepo)}
	padded := "/customer/%20" + testBillID + "%20"

	w := b.do(http.MethodGet, padded, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = b.do(http.MethodPost, padded+"/payment-method", url.Values{
		"amount": {"15000"},
		"bank":   {kasikorn},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/customer/"+testBillID+"/qr-payment", w.Header().Get("Location"))

	// state written through the padded link is found under the plain one
	w = b.do(http.MethodGet, "/customer/"+testBillID+"/qr-payment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), kasikorn)

	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, " "+testBillID+" ")
}

func TestBillPage_NotFoundLooksUpOnce(t *testing.T) {
	mockRepo := new(MockBillRepository)
	mockRepo.On("GetByID", mock.Anything, testBillID).Return(nil, fmt.Errorf("bill: %w", domain.ErrBillNotFound))
	b := &browser{t: t, handler: newTestServer(t, mockRepo)}

	w := b.do(http.MethodGet, "/customer/"+testBillID+"?utm=1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `href="/customer/`+testBillID+`?utm=1"`)
	mockRepo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestBillPage_ExhaustedRendersSamePage(t *testing.T) {
	mockRepo := new(MockBillRepository)
	mockRepo.On("GetByID", mock.Anything, testBillID).Return(nil, errTransient)
	b := &browser{t: t, handler: newTestServer(t, mockRepo)}

	w := b.do(http.MethodGet, "/customer/"+testBillID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ไม่พบข้อมูลบิล")
	mockRepo.AssertNumberOfCalls(t, "GetByID", fetcher.PrimaryPolicy.MaxAttempts)
}

func TestBillPage_InAppBrowserRetryRescuesFailedLoad(t *testing.T) {
	mockRepo := new(MockBillRepository)
	mockRepo.On("GetByID", mock.Anything, testBillID).Return(nil, errTransient).Times(fetcher.PrimaryPolicy.MaxAttempts)
	mockRepo.On("GetByID", mock.Anything, testBillID).Return(testBill(), nil)
	b := &browser{t: t, handler: newTestServer(t, mockRepo), referer: "https://l.facebook.com/"}

	w := b.do(http.MethodGet, "/customer/"+testBillID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "฿ 15,000")
}

func TestWizard_TwoBillsInOneBrowserDoNotLeak(t *testing.T) {
	otherID := "0b2c5cf7-1e8e-4bde-a4a4-5a0dd7a2f8e1"
	other := testBill()
	other.ID = otherID
	other.Amount = decimal.NewFromInt(900)

	mockRepo := new(MockBillRepository)
	mockRepo.On("GetByID", mock.Anything, testBillID).Return(testBill(), nil)
	mockRepo.On("GetByID", mock.Anything, otherID).Return(other, nil)
	b := &browser{t: t, handler: newTestServer(t, mockRepo)}

	b.do(http.MethodGet, "/customer/"+testBillID, nil)
	w := b.do(http.MethodPost, "/customer/"+testBillID+"/payment-method", url.Values{
		"amount": {"15000"},
		"bank":   {kasikorn},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = b.do(http.MethodGet, "/customer/"+otherID+"/qr-payment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "฿ 900")
	assert.NotContains(t, w.Body.String(), kasikorn)
}

func TestHealthz(t *testing.T) {
	b := &browser{t: t, handler: newTestServer(t, new(MockBillRepository))}
	w := b.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
}
