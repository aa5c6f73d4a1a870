package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/internal/logging"
	customError "github.com/segyhp/committee-ledger/pkg/errors"
	"github.com/segyhp/committee-ledger/pkg/response"
	"github.com/segyhp/committee-ledger/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// LedgerService is the set of ledger operations exposed over HTTP.
type LedgerService interface {
	RegisterMember(ctx context.Context, request *domain.RegisterMemberRequest, now time.Time) (*domain.Member, error)
	RegisterBorrower(ctx context.Context, request *domain.RegisterMemberRequest, now time.Time) (*domain.Member, error)
	ListMembers(ctx context.Context) ([]*domain.Member, error)

	IssueLoan(ctx context.Context, request *domain.IssueLoanRequest, now time.Time) (*domain.Loan, error)
	RecordRepayment(ctx context.Context, loanID string, request *domain.RecordRepaymentRequest, now time.Time) (*domain.LoanRepayment, error)
	GetLoanState(ctx context.Context, loanID string, asOf time.Time) (*domain.LoanDetailResponse, error)
	ListLoanStates(ctx context.Context, asOf time.Time) ([]domain.LoanStatement, error)
	GetLoanRepayments(ctx context.Context, loanID string) ([]*domain.LoanRepayment, error)

	CreateCommittee(ctx context.Context, request *domain.CreateCommitteeRequest, now time.Time) (*domain.Committee, error)
	ListCommittees(ctx context.Context) ([]*domain.Committee, error)
	Enroll(ctx context.Context, year int, request *domain.EnrollRequest, now time.Time) (*domain.MemberSubscription, error)
	ListSubscriptions(ctx context.Context, year int) ([]*domain.MemberSubscription, error)
	RecordCommitteePayment(ctx context.Context, year int, request *domain.RecordPaymentRequest, now time.Time) (*domain.PaymentReceipt, error)
	GetMemberDue(ctx context.Context, year int, memberID string, month int) (*domain.MemberDue, error)
	GetMemberMonthStatuses(ctx context.Context, year int, memberID string, asOf time.Time) ([]domain.MonthStatus, error)
	GetBatchDefaulters(ctx context.Context, year int, asOf time.Time) ([]domain.Defaulter, error)

	GetMemberStatement(ctx context.Context, memberID string, asOf time.Time) (*domain.MemberStatement, error)
	GetDashboard(ctx context.Context, asOf time.Time) (*domain.DashboardResponse, error)
}

type LedgerHandler struct {
	service   LedgerService
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewLedgerHandler(service LedgerService, logger *slog.Logger) *LedgerHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LedgerHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger.With(slog.String(logging.KeyComponent, "ledger_handler")),
		now:       time.Now,
	}
}

// RegisterRoutes mounts the ledger API on router.
func (h *LedgerHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/members", h.RegisterMember).Methods("POST")
	api.HandleFunc("/members", h.ListMembers).Methods("GET")
	api.HandleFunc("/members/{memberId}/statement", h.GetMemberStatement).Methods("GET")
	api.HandleFunc("/borrowers", h.RegisterBorrower).Methods("POST")

	api.HandleFunc("/loans", h.IssueLoan).Methods("POST")
	api.HandleFunc("/loans", h.ListLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", h.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/repayments", h.RecordRepayment).Methods("POST")
	api.HandleFunc("/loans/{loanId}/repayments", h.GetLoanRepayments).Methods("GET")

	api.HandleFunc("/committees", h.CreateCommittee).Methods("POST")
	api.HandleFunc("/committees", h.ListCommittees).Methods("GET")
	api.HandleFunc("/committees/{year:[0-9]+}/subscriptions", h.Enroll).Methods("POST")
	api.HandleFunc("/committees/{year:[0-9]+}/subscriptions", h.ListSubscriptions).Methods("GET")
	api.HandleFunc("/committees/{year:[0-9]+}/payments", h.RecordCommitteePayment).Methods("POST")
	api.HandleFunc("/committees/{year:[0-9]+}/members/{memberId}/due", h.GetMemberDue).Methods("GET")
	api.HandleFunc("/committees/{year:[0-9]+}/members/{memberId}/months", h.GetMemberMonthStatuses).Methods("GET")
	api.HandleFunc("/committees/{year:[0-9]+}/defaulters", h.GetBatchDefaulters).Methods("GET")

	api.HandleFunc("/dashboard", h.GetDashboard).Methods("GET")
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags. It writes
// the 400 itself and reports whether the handler may continue.
func (h *LedgerHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return false
	}
	return true
}

func (h *LedgerHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if response.StatusFor(customError.Code(err)) == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any(logging.KeyError, err),
		)
	}
	response.BusinessError(w, err)
}

func (h *LedgerHandler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var request domain.RegisterMemberRequest
	if !h.decodeAndValidate(w, r, &request) {
		return
	}

	member, err := h.service.RegisterMember(r.Context(), &request, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, member)
}

func (h *LedgerHandler) RegisterBorrower(w http.ResponseWriter, r *http.Request) {
	var request domain.RegisterMemberRequest
	if !h.decodeAndValidate(w, r, &request) {
		return
	}

	member, err := h.service.RegisterBorrower(r.Context(), &request, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, member)
}

func (h *LedgerHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, members)
}

func (h *LedgerHandler) GetMemberStatement(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		response.BadRequest(w, "Invalid as_of", err)
		return
	}

	statement, err := h.service.GetMemberStatement(r.Context(), mux.Vars(r)["memberId"], asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, statement)
}

func (h *LedgerHandler) IssueLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.IssueLoanRequest
	if !h.decodeAndValidate(w, r, &request) {
		return
	}

	loan, err := h.service.IssueLoan(r.Context(), &request, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, loan)
}

func (h *LedgerHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		response.BadRequest(w, "Invalid as_of", err)
		return
	}

	loans, err := h.service.ListLoanStates(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, loans)
}

func (h *LedgerHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		response.BadRequest(w, "Invalid as_of", err)
		return
	}

	detail, err := h.service.GetLoanState(r.Context(), mux.Vars(r)["loanId"], asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, detail)
}

func (h *LedgerHandler) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	var request domain.RecordRepaymentRequest
	if !h.decodeAndValidate(w, r, &request) {
		return
	}

	repayment, err := h.service.RecordRepayment(r.Context(), mux.Vars(r)["loanId"], &request, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, repayment)
}

func (h *LedgerHandler) GetLoanRepayments(w http.ResponseWriter, r *http.Request) {
	repayments, err := h.service.GetLoanRepayments(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, repayments)
}

func (h *LedgerHandler) CreateCommittee(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateCommitteeRequest
	if !h.decodeAndValidate(w, r, &request) {
		return
	}

	committee, err := h.service.CreateCommittee(r.Context(), &request, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, committee)
}

func (h *LedgerHandler) ListCommittees(w http.ResponseWriter, r *http.Request) {
	committees, err := h.service.ListCommittees(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, committees)
}

func (h *LedgerHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		response.BadRequest(w, "Invalid batch year", err)
		return
	}

	var request domain.EnrollRequest
	if !h.decodeAndValidate(w, r, &request) {
		return
	}

	sub, err := h.service.Enroll(r.Context(), year, &request, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, sub)
}

func (h *LedgerHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		response.BadRequest(w, "Invalid batch year", err)
		return
	}

	subs, err := h.service.ListSubscriptions(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, subs)
}

func (h *LedgerHandler) RecordCommitteePayment(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		response.BadRequest(w, "Invalid batch year", err)
		return
	}

	var request domain.RecordPaymentRequest
	if !h.decodeAndValidate(w, r, &request) {
		return
	}

	receipt, err := h.service.RecordCommitteePayment(r.Context(), year, &request, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, receipt)
}

// GetMemberDue evaluates the month given by ?month=, defaulting to the batch month
// that contains today.
func (h *LedgerHandler) GetMemberDue(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		response.BadRequest(w, "Invalid batch year", err)
		return
	}

	month, ok, err := queryInt(r, "month")
	if err != nil {
		response.BadRequest(w, "Invalid month", err)
		return
	}
	if !ok {
		month = max(0, utils.MonthsSinceJanuary(year, h.now())-1)
	}

	due, err := h.service.GetMemberDue(r.Context(), year, mux.Vars(r)["memberId"], month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, due)
}

func (h *LedgerHandler) GetMemberMonthStatuses(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		response.BadRequest(w, "Invalid batch year", err)
		return
	}
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		response.BadRequest(w, "Invalid as_of", err)
		return
	}

	statuses, err := h.service.GetMemberMonthStatuses(r.Context(), year, mux.Vars(r)["memberId"], asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, statuses)
}

func (h *LedgerHandler) GetBatchDefaulters(w http.ResponseWriter, r *http.Request) {
	year, err := pathYear(r)
	if err != nil {
		response.BadRequest(w, "Invalid batch year", err)
		return
	}
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		response.BadRequest(w, "Invalid as_of", err)
		return
	}

	defaulters, err := h.service.GetBatchDefaulters(r.Context(), year, asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, defaulters)
}

func (h *LedgerHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		response.BadRequest(w, "Invalid as_of", err)
		return
	}

	dashboard, err := h.service.GetDashboard(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Success(w, dashboard)
}
