package workers

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vborgne/urlshortener/internal/models"
)

// VisitRecorder is implemented by the analytics service. Keeping the
// dependency as an interface lets worker tests run against a fake.
type VisitRecorder interface {
	Record(payload models.VisitPayload)
}

// StartVisitWorkers launches a pool of worker goroutines to process visit
// payloads asynchronously. This decouples analytics persistence from the
// redirect response: handlers push into the channel and return immediately,
// workers drain it at their own pace.
//
// The returned WaitGroup completes once every worker has exited; callers
// close the channel during shutdown and then wait on it so buffered events
// are flushed before the process exits.
func StartVisitWorkers(workerCount int, visitChan <-chan models.VisitPayload, recorder VisitRecorder, logger *zap.Logger) *sync.WaitGroup {
	logger.Info("starting visit workers", zap.Int("worker_count", workerCount))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			visitWorker(visitChan, recorder)
		}()
	}
	return &wg
}

// visitWorker drains the channel until it is closed. Record never returns an
// error: the analytics path is best-effort and contains its own failures.
func visitWorker(visitChan <-chan models.VisitPayload, recorder VisitRecorder) {
	for payload := range visitChan {
		recorder.Record(payload)
	}
}
