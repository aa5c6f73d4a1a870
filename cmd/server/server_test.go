package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/segyhp/committee-ledger/internal/config"
	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/internal/handler"
	"github.com/segyhp/committee-ledger/internal/logging"
	"github.com/segyhp/committee-ledger/internal/repository"
	"github.com/segyhp/committee-ledger/internal/service"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *sqlx.DB

// End-to-end tests run the real router against PostgreSQL, e.g.
// TEST_DATABASE_URL=postgres://postgres@localhost:5432/ledger_test?sslmode=disable
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping end-to-end tests")
		os.Exit(0)
	}

	var err error
	testDB, err = sqlx.Connect("postgres", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}
	if err := repository.Migrate(context.Background(), testDB); err != nil {
		panic(fmt.Sprintf("Failed to initialize database schema: %v", err))
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func newTestServer(t *testing.T) *mux.Router {
	t.Helper()
	_, err := testDB.Exec(`TRUNCATE payment_records, member_subscriptions, committees, loan_repayments, loans, members`)
	require.NoError(t, err)

	cfg := &config.Config{
		Business: config.BusinessConfig{
			DefaultInterestRate:  "1",
			DefaultBatchMonths:   36,
			DefaultMonthlyAmount: "1000",
			DefaultPaymentMethod: "Cash",
		},
	}

	// No snapshot cache: every read replays.
	ledgerService := service.NewLedgerService(service.Repositories{
		Loans:      repository.NewLoanRepository(testDB),
		Repayments: repository.NewRepaymentRepository(testDB),
		Members:    repository.NewMemberRepository(testDB),
		Committees: repository.NewCommitteeRepository(testDB),
		Payments:   repository.NewPaymentRepository(testDB),
	}, nil, logging.Discard(), cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { redisClient.Close() })

	return setupRoutes(
		handler.NewLedgerHandler(ledgerService, logging.Discard()),
		handler.NewHealthHandler(testDB, redisClient, time.Second),
		logging.Discard(),
	)
}

func call(t *testing.T, router *mux.Router, method, target string, payload interface{}, wantStatus int, out interface{}) {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
	if out == nil {
		return
	}
	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
}

func TestLoanLifecycle(t *testing.T) {
	router := newTestServer(t)

	var member domain.Member
	call(t, router, "POST", "/api/v1/members", map[string]string{"name": "Asha"}, http.StatusCreated, &member)
	assert.Equal(t, "101", member.ID)

	var loan domain.Loan
	call(t, router, "POST", "/api/v1/loans", map[string]interface{}{
		"borrower_id":   member.ID,
		"amount":        "10000",
		"interest_rate": "2",
		"start_date":    "2024-01-10T09:00:00Z",
	}, http.StatusCreated, &loan)
	assert.Equal(t, "L-1001", loan.ID)

	call(t, router, "POST", "/api/v1/loans/L-1001/repayments", map[string]string{
		"amount":  "1200",
		"paid_at": "2024-02-20T10:00:00Z",
	}, http.StatusCreated, nil)

	var detail domain.LoanDetailResponse
	call(t, router, "GET", "/api/v1/loans/L-1001?as_of=2024-03-01", nil, http.StatusOK, &detail)
	assert.True(t, decimal.NewFromInt(9000).Equal(detail.State.PrincipalPending))
	assert.True(t, decimal.Zero.Equal(detail.State.InterestPending))
	assert.Len(t, detail.Repayments, 1)

	// The repayment is dated after this instant, so it is not part of the snapshot.
	call(t, router, "GET", "/api/v1/loans/L-1001?as_of=2024-02-15", nil, http.StatusOK, &detail)
	assert.True(t, decimal.NewFromInt(10000).Equal(detail.State.PrincipalPending))
	assert.True(t, decimal.NewFromInt(200).Equal(detail.State.InterestPending))

	call(t, router, "GET", "/api/v1/loans/L-4040", nil, http.StatusNotFound, nil)
}

func TestCommitteeLifecycle(t *testing.T) {
	router := newTestServer(t)

	var member domain.Member
	call(t, router, "POST", "/api/v1/members", map[string]string{"name": "Ravi"}, http.StatusCreated, &member)

	call(t, router, "POST", "/api/v1/committees", map[string]int{"year": 2024, "duration_months": 12}, http.StatusCreated, nil)
	call(t, router, "POST", "/api/v1/committees", map[string]int{"year": 2024}, http.StatusConflict, nil)
	call(t, router, "POST", "/api/v1/committees/2024/subscriptions", map[string]string{"member_id": member.ID}, http.StatusCreated, nil)

	var receipt domain.PaymentReceipt
	call(t, router, "POST", "/api/v1/committees/2024/payments", map[string]interface{}{
		"member_id":   member.ID,
		"month_index": 0,
		"paid_at":     "2024-01-05T10:00:00Z",
	}, http.StatusCreated, &receipt)
	assert.True(t, decimal.NewFromInt(1000).Equal(receipt.TotalDue))

	var defaulters []domain.Defaulter
	call(t, router, "GET", "/api/v1/committees/2024/defaulters?as_of=2024-03-31", nil, http.StatusOK, &defaulters)
	require.Len(t, defaulters, 1)
	assert.Equal(t, "Ravi", defaulters[0].Name)
	assert.Equal(t, 2, defaulters[0].MonthsMissed)
	assert.True(t, decimal.NewFromInt(2020).Equal(defaulters[0].TotalArrears))

	var statement domain.MemberStatement
	call(t, router, "GET", "/api/v1/members/"+member.ID+"/statement?as_of=2024-03-31", nil, http.StatusOK, &statement)
	require.Len(t, statement.Batches, 1)
	assert.Equal(t, []int{1, 2}, statement.Batches[0].PendingMonths)
	assert.Equal(t, 1, statement.Batches[0].MonthsPaid)

	var dashboard domain.DashboardResponse
	call(t, router, "GET", "/api/v1/dashboard?as_of=2024-03-31", nil, http.StatusOK, &dashboard)
	require.Len(t, dashboard.Batches, 1)
	assert.True(t, decimal.NewFromInt(3000).Equal(dashboard.Batches[0].ExpectedToDate))
	assert.True(t, decimal.NewFromInt(1000).Equal(dashboard.Batches[0].CollectedToDate))
}
