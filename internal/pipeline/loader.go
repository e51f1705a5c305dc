package pipeline

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Path           string
	SizeBytes      int64
	ModTime        time.Time
	Conversations  int
	SkippedEntries int
	Messages       []model.FlatMessage
}

// ProgressFunc is called during loading to report progress.
// current is the number of conversations flattened so far, total is the total count.
type ProgressFunc func(current, total int)

// Load reads an export and flattens it into messages.
// Conversations are flattened on a bounded worker pool.
func Load(path string, progressFn ProgressFunc) (*LoadResult, error) {
	parsed, err := source.ParseFile(path)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{
		Path:           path,
		SizeBytes:      parsed.SizeBytes,
		Conversations:  len(parsed.Conversations),
		SkippedEntries: parsed.SkippedEntries,
	}
	if info, statErr := os.Stat(path); statErr == nil {
		result.ModTime = info.ModTime()
	}

	result.Messages = FlattenParallel(parsed.Conversations, progressFn)
	return result, nil
}

// FlattenParallel is Flatten on a worker pool. Per-conversation results
// land in index slots, so output order does not depend on scheduling.
func FlattenParallel(convs []source.Conversation, progressFn ProgressFunc) []model.FlatMessage {
	if len(convs) == 0 {
		return []model.FlatMessage{}
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(convs) {
		numWorkers = len(convs)
	}

	work := make(chan int, len(convs))
	results := make([][]model.FlatMessage, len(convs))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range convs {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = flattenConversation(idx, convs[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(convs))
				}
			}
		}()
	}

	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]model.FlatMessage, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// LoadAndSummarise runs Load then Summarise.
func LoadAndSummarise(path string, progressFn ProgressFunc) (*LoadResult, *model.AnalysisResult, error) {
	lr, err := Load(path, progressFn)
	if err != nil {
		return nil, nil, err
	}
	res, err := Summarise(lr.Messages)
	if err != nil {
		return lr, nil, errors.Wrap(err, path)
	}
	return lr, res, nil
}
