package workers

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vborgne/urlshortener/internal/models"
)

type countingRecorder struct {
	mu       sync.Mutex
	recorded []models.VisitPayload
}

func (r *countingRecorder) Record(payload models.VisitPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, payload)
}

func (r *countingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recorded)
}

func TestWorkersDrainChannel(t *testing.T) {
	recorder := &countingRecorder{}
	visitChan := make(chan models.VisitPayload, 100)

	wg := StartVisitWorkers(3, visitChan, recorder, zap.NewNop())

	const total = 50
	for i := 0; i < total; i++ {
		visitChan <- models.VisitPayload{LinkID: uint(i + 1), VisitedAt: time.Now()}
	}

	close(visitChan)
	wg.Wait()

	if got := recorder.count(); got != total {
		t.Errorf("expected %d recorded visits after drain, got %d", total, got)
	}
}

func TestWorkersExitOnClose(t *testing.T) {
	recorder := &countingRecorder{}
	visitChan := make(chan models.VisitPayload, 1)

	wg := StartVisitWorkers(2, visitChan, recorder, zap.NewNop())
	close(visitChan)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after channel close")
	}
}
