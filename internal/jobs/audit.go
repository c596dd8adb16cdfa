package jobs

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/lexicon/internal/category"
	"github.com/emrgen/lexicon/internal/indexer"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/sirupsen/logrus"
)

// BucketMismatch is a word whose stored initial letter is not the bucket of
// its term.
type BucketMismatch struct {
	WordID string `json:"wordId"`
	Term   string `json:"term"`
	Stored string `json:"stored"`
	Want   string `json:"want"`
}

// AuditReport lists the invariant violations found in one scan.
type AuditReport struct {
	BucketMismatches   []BucketMismatch `json:"bucketMismatches"`
	CategoryViolations []string         `json:"categoryViolations"`
	DanglingSynonyms   []*model.Synonym `json:"danglingSynonyms"`
	// IneligibleWords are the deleted or rejected endpoints of dangling edges.
	IneligibleWords []string  `json:"ineligibleWords"`
	ScannedWords    int       `json:"scannedWords"`
	FinishedAt      time.Time `json:"finishedAt"`
}

func (r *AuditReport) Clean() bool {
	return len(r.BucketMismatches) == 0 && len(r.CategoryViolations) == 0 && len(r.DanglingSynonyms) == 0
}

// InvariantAuditTask scans the store for words breaking the dictionary
// invariants. It only reports, repairs go through the moderation service.
type InvariantAuditTask struct {
	store    store.Store
	schedule string
	batch    int
}

func NewInvariantAuditTask(st store.Store, schedule string) *InvariantAuditTask {
	return &InvariantAuditTask{
		store:    st,
		schedule: schedule,
		batch:    500,
	}
}

func (a *InvariantAuditTask) Name() string {
	return "invariant_audit"
}

func (a *InvariantAuditTask) Schedule() string {
	return a.schedule
}

func (a *InvariantAuditTask) Run() {
	report, err := a.Audit(context.Background())
	if err != nil {
		logrus.Errorf("audit failed: %v", err)
		return
	}

	if report.Clean() {
		logrus.Infof("audit: %d words scanned, no violation", report.ScannedWords)
		return
	}

	for _, m := range report.BucketMismatches {
		logrus.WithFields(logrus.Fields{"word": m.WordID, "term": m.Term, "stored": m.Stored, "want": m.Want}).
			Warn("audit: initial letter out of date")
	}
	for _, id := range report.CategoryViolations {
		logrus.WithField("word", id).Warnf("audit: %v", category.ErrNoMainCategory)
	}
	for _, edge := range report.DanglingSynonyms {
		logrus.WithFields(logrus.Fields{"edge": edge.ID, "word": edge.WordID, "synonym": edge.SynonymID}).
			Warn("audit: synonym edge with an ineligible endpoint")
	}
}

// Audit runs one scan.
func (a *InvariantAuditTask) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{}

	err := a.store.EachWord(ctx, a.batch, func(words []*model.Word) error {
		for _, w := range words {
			report.ScannedWords++
			if want := indexer.BucketOf(w.Term); want != w.InitialLetter {
				report.BucketMismatches = append(report.BucketMismatches, BucketMismatch{
					WordID: w.ID,
					Term:   w.Term,
					Stored: w.InitialLetter,
					Want:   want,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if report.CategoryViolations, err = a.store.MainCategoryViolations(ctx); err != nil {
		return nil, err
	}

	if report.DanglingSynonyms, err = a.store.DanglingSynonyms(ctx); err != nil {
		return nil, err
	}

	if len(report.DanglingSynonyms) > 0 {
		endpoints := mapset.NewThreadUnsafeSet[string]()
		for _, edge := range report.DanglingSynonyms {
			endpoints.Append(edge.WordID, edge.SynonymID)
		}

		ineligible := mapset.NewThreadUnsafeSet[string]()
		for id := range endpoints.Iter() {
			w, err := a.store.GetEntityUnscoped(ctx, model.EntityWord, id)
			if err != nil || w.Base().IsDeleted() || w.Base().ValidationStatus == model.StatusRejected {
				ineligible.Add(id)
			}
		}
		report.IneligibleWords = ineligible.ToSlice()
	}

	report.FinishedAt = time.Now()

	return report, nil
}
