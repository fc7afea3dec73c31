package service

import (
	"github.com/deppfellow/lodging/internal/lib/job"
	"github.com/deppfellow/lodging/internal/lib/password"
	"github.com/deppfellow/lodging/internal/repository"
	"github.com/deppfellow/lodging/internal/server"
)

type Services struct {
	Catalog *Catalog
	Job     *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var tasks TaskEnqueuer
	if s.Job != nil {
		tasks = s.Job.Client
	}

	catalog := NewCatalog(CatalogDeps{
		Repo:     repos.Store,
		Hasher:   password.NewBcrypt(s.Config.Password.Cost),
		Tasks:    tasks,
		Logger:   s.Logger,
		NewRelic: s.LoggerService.GetApplication(),
	})

	return &Services{
		Catalog: catalog,
		Job:     s.Job,
	}, nil
}
