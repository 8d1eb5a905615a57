package bountypool

import (
	"log/slog"

	httpadapter "testquest/contexts/finance-core/bounty-pool/adapters/http"
	"testquest/contexts/finance-core/bounty-pool/adapters/memory"
	"testquest/contexts/finance-core/bounty-pool/application"
	"testquest/contexts/finance-core/bounty-pool/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository         ports.Repository
	Ledger             ports.LedgerRecorder
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	PlatformFeePercent int
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:               deps.Repository,
		Ledger:             deps.Ledger,
		Clock:              deps.Clock,
		IDGen:              deps.IDGenerator,
		PlatformFeePercent: deps.PlatformFeePercent,
		Logger:             deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

func NewInMemoryModule(seed []ports.Project, ledger ports.LedgerRecorder, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:  store,
		Ledger:      ledger,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
