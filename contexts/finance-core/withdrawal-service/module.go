package withdrawal

import (
	"log/slog"
	"time"

	httpadapter "testquest/contexts/finance-core/withdrawal-service/adapters/http"
	"testquest/contexts/finance-core/withdrawal-service/adapters/memory"
	"testquest/contexts/finance-core/withdrawal-service/application"
	"testquest/contexts/finance-core/withdrawal-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository    ports.Repository
	Ledger        ports.Ledger
	Payout        ports.PayoutProvider
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	PayoutTimeout time.Duration
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:          deps.Repository,
		Ledger:        deps.Ledger,
		Payout:        deps.Payout,
		Outbox:        deps.Outbox,
		Clock:         deps.Clock,
		IDGen:         deps.IDGenerator,
		PayoutTimeout: deps.PayoutTimeout,
		Logger:        deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(
	seed []ports.WithdrawalRequest,
	ledger ports.Ledger,
	payout ports.PayoutProvider,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:  store,
		Ledger:      ledger,
		Payout:      payout,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
