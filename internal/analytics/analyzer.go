package analytics

import (
	"context"
	"errors"
	"sync"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

// ErrAnalyzerStopped возвращается, если пул остановлен до завершения запроса
var ErrAnalyzerStopped = errors.New("pace analyzer stopped")

// DriverLaps входные данные для анализа темпа одного пилота
type DriverLaps struct {
	Driver string
	Laps   []models.LapRecord
}

// PaceInputs собирает входные данные анализатора для списка пилотов.
// Пустой список означает всех пилотов в порядке первого появления; пилоты без кругов пропускаются.
func PaceInputs(laps []models.LapRecord, drivers []string) []DriverLaps {
	order, byDriver := GroupByDriver(laps)
	if len(drivers) == 0 {
		drivers = order
	}

	inputs := make([]DriverLaps, 0, len(drivers))
	for _, d := range drivers {
		if own := byDriver[d]; len(own) > 0 {
			inputs = append(inputs, DriverLaps{Driver: d, Laps: own})
		}
	}
	return inputs
}

// paceJob задача для воркера
type paceJob struct {
	index   int
	input   DriverLaps
	results chan<- paceResult
}

// paceResult результат задачи с позицией в исходном запросе
type paceResult struct {
	index int
	pace  models.DriverPace
}

// PaceAnalyzer пул горутин для параллельного анализа темпа по пилотам.
// Сами вычисления чистые; пул только распределяет пилотов по воркерам.
type PaceAnalyzer struct {
	mu        sync.RWMutex
	jobsChan  chan paceJob
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	workers   int
	processed int64
	outliers  int64
}

// NewPaceAnalyzer создает пул с очередью заданного размера
func NewPaceAnalyzer(bufferSize int) *PaceAnalyzer {
	return &PaceAnalyzer{
		jobsChan: make(chan paceJob, bufferSize),
		stopChan: make(chan struct{}),
	}
}

// Start запускает горутины для обработки задач
func (a *PaceAnalyzer) Start(numWorkers int) {
	a.mu.Lock()
	a.workers += numWorkers
	a.mu.Unlock()

	for i := 0; i < numWorkers; i++ {
		a.wg.Add(1)
		go a.worker()
	}
}

// worker горутина для обработки задач
func (a *PaceAnalyzer) worker() {
	defer a.wg.Done()
	for {
		select {
		case job := <-a.jobsChan:
			pace := AnalyzeRacePace(job.input.Driver, job.input.Laps)
			a.record(pace)
			// канал результатов буферизован на весь запрос
			job.results <- paceResult{index: job.index, pace: pace}
		case <-a.stopChan:
			return
		}
	}
}

// Analyze анализирует темп всех пилотов и возвращает результаты в порядке запроса.
// Без запущенных воркеров выполняет анализ синхронно.
func (a *PaceAnalyzer) Analyze(ctx context.Context, inputs []DriverLaps) ([]models.DriverPace, error) {
	out := make([]models.DriverPace, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}

	a.mu.RLock()
	workers := a.workers
	a.mu.RUnlock()

	if workers == 0 {
		for i, in := range inputs {
			out[i] = AnalyzeRacePace(in.Driver, in.Laps)
			a.record(out[i])
		}
		return out, nil
	}

	results := make(chan paceResult, len(inputs))
	for i, in := range inputs {
		select {
		case a.jobsChan <- paceJob{index: i, input: in, results: results}:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-a.stopChan:
			return nil, ErrAnalyzerStopped
		}
	}

	for received := 0; received < len(inputs); received++ {
		select {
		case r := <-results:
			out[r.index] = r.pace
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-a.stopChan:
			return nil, ErrAnalyzerStopped
		}
	}
	return out, nil
}

// GetStats возвращает количество обработанных пилотов и найденных выбросов
func (a *PaceAnalyzer) GetStats() (processed, outliers int64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.processed, a.outliers
}

// Stop останавливает пул
func (a *PaceAnalyzer) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopChan)
	})
	a.wg.Wait()
}

func (a *PaceAnalyzer) record(pace models.DriverPace) {
	var outliers int64
	for _, lap := range pace.Laps {
		if lap.IsOutlier {
			outliers++
		}
	}

	a.mu.Lock()
	a.processed++
	a.outliers += outliers
	a.mu.Unlock()
}
