package bugreport

import (
	"log/slog"

	httpadapter "testquest/contexts/triage-review/bug-report-service/adapters/http"
	"testquest/contexts/triage-review/bug-report-service/adapters/memory"
	"testquest/contexts/triage-review/bug-report-service/application"
	"testquest/contexts/triage-review/bug-report-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository  ports.Repository
	Projects    ports.ProjectGateway
	Ledger      ports.Ledger
	Profiles    ports.TesterProfiles
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:     deps.Repository,
		Projects: deps.Projects,
		Ledger:   deps.Ledger,
		Profiles: deps.Profiles,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the service against the in-process store. The
// project gateway, ledger, and profile sinks stay caller-supplied so tests
// can observe the cross-service traffic.
func NewInMemoryModule(
	seed []ports.BugReport,
	projects ports.ProjectGateway,
	ledger ports.Ledger,
	profiles ports.TesterProfiles,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:  store,
		Projects:    projects,
		Ledger:      ledger,
		Profiles:    profiles,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
