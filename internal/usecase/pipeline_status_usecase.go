package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"talent-match/internal/repository"
)

type PipelineStatus struct {
	Applicants  int                               `json:"applicants"`
	Parse       repository.PipelineParseSummary   `json:"parse"`
	Scoring     repository.PipelineScoringSummary `json:"scoring"`
	LastUpdated time.Time                         `json:"last_updated"`
}

type PipelineStatusUsecase interface {
	GetStatus(ctx context.Context) (PipelineStatus, error)
}

type PipelineStatusService struct {
	repo repository.PipelineStatusRepository
	log  zerolog.Logger
}

func NewPipelineStatusUsecase(repo repository.PipelineStatusRepository, log zerolog.Logger) *PipelineStatusService {
	return &PipelineStatusService{repo: repo, log: log}
}

// GetStatus gathers the section summaries concurrently; a failed section
// logs and reports zeros rather than failing the whole status call.
func (u *PipelineStatusService) GetStatus(ctx context.Context) (PipelineStatus, error) {
	var (
		out PipelineStatus
		wg  sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := u.repo.CountApplicants(ctx)
		if err != nil {
			u.log.Warn().Err(err).Msg("pipeline status: applicant count failed")
			return
		}
		out.Applicants = n
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s, err := u.repo.GetParseSummary(ctx)
		if err != nil {
			u.log.Warn().Err(err).Msg("pipeline status: parse summary failed")
			return
		}
		out.Parse = s
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s, err := u.repo.GetScoringSummary(ctx)
		if err != nil {
			u.log.Warn().Err(err).Msg("pipeline status: scoring summary failed")
			return
		}
		out.Scoring = s
	}()

	wg.Wait()
	out.LastUpdated = time.Now().UTC()
	return out, nil
}
