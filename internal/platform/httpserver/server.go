package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	leaderboard "testquest/contexts/community-experience/leaderboard-service"
	bountypool "testquest/contexts/finance-core/bounty-pool"
	rewardledger "testquest/contexts/finance-core/reward-ledger"
	withdrawal "testquest/contexts/finance-core/withdrawal-service"
	bugreport "testquest/contexts/triage-review/bug-report-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "testquest/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	pool        bountypool.Module
	ledger      rewardledger.Module
	reports     bugreport.Module
	withdrawals withdrawal.Module
	leaderboard leaderboard.Module
}

func New(
	pool bountypool.Module,
	ledger rewardledger.Module,
	reports bugreport.Module,
	withdrawals withdrawal.Module,
	leaderboardModule leaderboard.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		pool:        pool,
		ledger:      ledger,
		reports:     reports,
		withdrawals: withdrawals,
		leaderboard: leaderboardModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/projects", s.handleFundProject)
	s.mux.HandleFunc("GET /api/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /api/projects/{project_id}", s.handleGetProject)
	s.mux.HandleFunc("GET /api/projects/{project_id}/transactions", s.handleListProjectTransactions)

	s.mux.HandleFunc("POST /api/bug-reports", s.handleSubmitBugReport)
	s.mux.HandleFunc("GET /api/bug-reports", s.handleListBugReports)
	s.mux.HandleFunc("GET /api/bug-reports/{report_id}", s.handleGetBugReport)
	s.mux.HandleFunc("PUT /api/bug-reports/{report_id}", s.handleBugReportAction)
	s.mux.HandleFunc("DELETE /api/bug-reports/{report_id}", s.handleDeleteBugReport)

	s.mux.HandleFunc("POST /api/withdrawals", s.handleRequestWithdrawal)
	s.mux.HandleFunc("GET /api/withdrawals", s.handleListWithdrawals)
	s.mux.HandleFunc("GET /api/withdrawals/{withdrawal_id}", s.handleGetWithdrawal)
	s.mux.HandleFunc("PUT /api/withdrawals/{withdrawal_id}", s.handleWithdrawalAction)

	s.mux.HandleFunc("GET /api/leaderboards", s.handleGetLeaderboard)
	s.mux.HandleFunc("GET /api/users/{user_id}/profile", s.handleGetProfile)
	s.mux.HandleFunc("GET /api/users/{user_id}/account", s.handleGetAccount)
	s.mux.HandleFunc("GET /api/users/{user_id}/transactions", s.handleListUserTransactions)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// resolveActorID pulls the acting user from the gateway-injected header.
func resolveActorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func parsePagination(r *http.Request) (int, int, bool) {
	query := r.URL.Query()
	limit := 0
	offset := 0
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, false
		}
		limit = value
	}
	if raw := query.Get("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, false
		}
		offset = value
	}
	return limit, offset, true
}
