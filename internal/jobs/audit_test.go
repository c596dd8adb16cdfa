package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWord(t *testing.T, st interface {
	CreateEntity(context.Context, model.Moderatable) error
}, term, letter string, status model.ValidationStatus) *model.Word {
	t.Helper()
	w := &model.Word{
		Entity:        model.Entity{ID: uuid.New().String(), ValidationStatus: status, CreatedBy: "seed", Version: 1},
		Term:          term,
		InitialLetter: letter,
	}
	require.NoError(t, st.CreateEntity(context.Background(), w))
	return w
}

func TestInvariantAuditTask_Audit(t *testing.T) {
	ctx := context.Background()
	st := tester.NewStore(t)

	good := seedWord(t, st, "Ngor", "NG", model.StatusValidated)
	stale := seedWord(t, st, "Ñaan", "N", model.StatusPending)
	rejected := seedWord(t, st, "jang", "J", model.StatusRejected)

	edge := &model.Synonym{ID: uuid.New().String(), WordID: good.ID, SynonymID: rejected.ID, Strength: 3, Language: model.LanguageWolof}
	require.NoError(t, st.CreateSynonym(ctx, edge))

	c := &model.Category{ID: uuid.New().String(), Name: "Culture"}
	require.NoError(t, st.CreateCategory(ctx, c))
	require.NoError(t, st.CreateAssignment(ctx, &model.WordCategory{WordID: good.ID, CategoryID: c.ID, IsMainCategory: false}))

	task := NewInvariantAuditTask(st, "@every 1m")
	task.batch = 2

	report, err := task.Audit(ctx)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, 3, report.ScannedWords)

	require.Len(t, report.BucketMismatches, 1)
	assert.Equal(t, stale.ID, report.BucketMismatches[0].WordID)
	assert.Equal(t, "Ñ", report.BucketMismatches[0].Want)

	assert.Equal(t, []string{good.ID}, report.CategoryViolations)

	require.Len(t, report.DanglingSynonyms, 1)
	assert.Equal(t, edge.ID, report.DanglingSynonyms[0].ID)
	assert.ElementsMatch(t, []string{rejected.ID}, report.IneligibleWords)

	// Run only logs
	task.Run()
}

func TestInvariantAuditTask_Clean(t *testing.T) {
	st := tester.NewStore(t)
	seedWord(t, st, "Aada", "A", model.StatusPending)

	report, err := NewInvariantAuditTask(st, "@every 1m").Audit(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Empty(t, report.IneligibleWords)
}

type blockingJob struct {
	started chan struct{}
	release chan struct{}
	runs    int
	mu      sync.Mutex
}

func (b *blockingJob) Name() string     { return "blocking" }
func (b *blockingJob) Schedule() string { return "@every 1h" }
func (b *blockingJob) Run() {
	b.mu.Lock()
	b.runs++
	b.mu.Unlock()
	b.started <- struct{}{}
	<-b.release
}

func TestTaskExecutor_NoOverlap(t *testing.T) {
	job := &blockingJob{started: make(chan struct{}, 1), release: make(chan struct{})}
	executor := NewTaskExecutor(job)
	require.NoError(t, executor.Run())
	defer executor.Stop()

	done := make(chan bool)
	go func() { done <- executor.Trigger(job) }()

	select {
	case <-job.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not start")
	}

	assert.False(t, executor.Trigger(job))

	close(job.release)
	assert.True(t, <-done)
	assert.True(t, executor.Trigger(job))
	assert.Equal(t, 2, job.runs)
}
