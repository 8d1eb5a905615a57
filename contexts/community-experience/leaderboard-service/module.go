package leaderboard

import (
	"log/slog"

	httpadapter "testquest/contexts/community-experience/leaderboard-service/adapters/http"
	"testquest/contexts/community-experience/leaderboard-service/adapters/memory"
	"testquest/contexts/community-experience/leaderboard-service/application"
	"testquest/contexts/community-experience/leaderboard-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Profiles ports.Repository
	Reports  ports.ReportHistory
	Credits  ports.CreditsReader
	Clock    ports.Clock
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Profiles: deps.Profiles,
		Reports:  deps.Reports,
		Credits:  deps.Credits,
		Clock:    deps.Clock,
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

func NewInMemoryModule(
	seed []ports.TesterProfile,
	reports ports.ReportHistory,
	credits ports.CreditsReader,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Profiles: store,
		Reports:  reports,
		Credits:  credits,
		Clock:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
