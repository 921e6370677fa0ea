package tags_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/database/dbtest"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/tags"
)

var pg *dbtest.Instance

func TestMain(m *testing.M) {
	dbtest.Main(m, &pg)
}

func newQuestion(t *testing.T, db *gorm.DB, title string) models.Question {
	t.Helper()
	u := models.User{Name: title, Username: title, Email: title + "@example.com"}
	require.NoError(t, db.Create(&u).Error)
	q := models.Question{Title: title, Content: "content", AuthorID: u.ID}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func reconcile(t *testing.T, s *store.Store, questionID int, names ...string) tags.Change {
	t.Helper()
	var ch tags.Change
	require.NoError(t, s.Atomic(context.Background(), func(tx *store.Tx) error {
		var err error
		ch, err = tags.Reconcile(tx, questionID, names)
		return err
	}))
	return ch
}

func tagCounts(t *testing.T, db *gorm.DB) map[string]int {
	t.Helper()
	var all []models.Tag
	require.NoError(t, db.Find(&all).Error)
	out := make(map[string]int, len(all))
	for _, tag := range all {
		out[tag.Name] = tag.Questions
	}
	return out
}

func names(ts []models.Tag) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func assertCountsMatchLinks(t *testing.T, db *gorm.DB) {
	t.Helper()
	var all []models.Tag
	require.NoError(t, db.Find(&all).Error)
	for _, tag := range all {
		var links int64
		require.NoError(t, db.Model(&models.TagQuestion{}).Where("tag_id = ?", tag.ID).Count(&links).Error)
		assert.EqualValues(t, links, tag.Questions, "tag %s", tag.Name)
	}
}

func TestEditScenario(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q := newQuestion(t, db, "q1")

	ch := reconcile(t, s, q.ID, "react", "js")
	assert.Equal(t, []string{"react", "js"}, names(ch.Tags))
	assert.Equal(t, map[string]int{"react": 1, "js": 1}, tagCounts(t, db))

	ch = reconcile(t, s, q.ID, "js", "css")
	assert.Equal(t, []string{"js", "css"}, names(ch.Tags))
	assert.Equal(t, []string{"css"}, names(ch.Added))
	assert.Equal(t, []string{"react"}, names(ch.Removed))
	assert.Equal(t, map[string]int{"react": 0, "js": 1, "css": 1}, tagCounts(t, db))
	assertCountsMatchLinks(t, db)
}

func TestRoundTripRestoresCounts(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q1 := newQuestion(t, db, "first")
	q2 := newQuestion(t, db, "second")

	reconcile(t, s, q2.ID, "go", "sql")
	reconcile(t, s, q1.ID, "go", "http")
	before := tagCounts(t, db)

	reconcile(t, s, q1.ID, "sql", "grpc")
	reconcile(t, s, q1.ID, "go", "http")

	after := tagCounts(t, db)
	for name, n := range before {
		assert.Equal(t, n, after[name], "tag %s", name)
	}
	assert.Equal(t, 1, after["sql"], "tag still used by the other question")
	assertCountsMatchLinks(t, db)

	var linked []models.Tag
	require.NoError(t, s.Atomic(context.Background(), func(tx *store.Tx) error {
		var err error
		linked, err = tx.QuestionTags(q2.ID)
		return err
	}))
	assert.Equal(t, []string{"go", "sql"}, names(linked))
}

func TestDuplicateNamesCountOnce(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q := newQuestion(t, db, "dupes")

	ch := reconcile(t, s, q.ID, "Go", "go", "GO")

	assert.Equal(t, []string{"Go"}, names(ch.Tags))
	assert.Equal(t, map[string]int{"Go": 1}, tagCounts(t, db))
}

func TestExistingTagMatchedIgnoringCase(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q1 := newQuestion(t, db, "one")
	q2 := newQuestion(t, db, "two")

	reconcile(t, s, q1.ID, "TypeScript")
	ch := reconcile(t, s, q2.ID, "typescript")

	assert.Equal(t, []string{"TypeScript"}, names(ch.Tags))
	assert.Equal(t, map[string]int{"TypeScript": 2}, tagCounts(t, db))
}

func TestReconcileTouchesTagPages(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q := newQuestion(t, db, "touch")

	var touched []string
	require.NoError(t, s.Atomic(context.Background(), func(tx *store.Tx) error {
		ch, err := tags.Reconcile(tx, q.ID, []string{"a", "b"})
		if err != nil {
			return err
		}
		touched = tx.Touched()
		assert.Len(t, ch.Added, 2)
		return nil
	}))
	assert.Len(t, touched, 2)
}

func TestDetach(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q := newQuestion(t, db, "detach")
	reconcile(t, s, q.ID, "x", "y")

	require.NoError(t, s.Atomic(context.Background(), func(tx *store.Tx) error {
		removed, err := tags.Detach(tx, q.ID)
		assert.Len(t, removed, 2)
		return err
	}))

	assert.Equal(t, map[string]int{"x": 0, "y": 0}, tagCounts(t, db))
	assertCountsMatchLinks(t, db)
}

func TestConcurrentReconcilesWithReversedTagOrder(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q1 := newQuestion(t, db, "forward")
	q2 := newQuestion(t, db, "backward")
	forward := []string{"react", "js", "go", "sql", "css"}
	backward := slices.Clone(forward)
	slices.Reverse(backward)

	both := func(fn func(questionID int, names []string) error) {
		t.Helper()
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, job := range []struct {
			id    int
			names []string
		}{{q1.ID, forward}, {q2.ID, backward}} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = fn(job.id, job.names)
			}()
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
	}
	attach := func(questionID int, names []string) error {
		return s.Atomic(context.Background(), func(tx *store.Tx) error {
			_, err := tags.Reconcile(tx, questionID, names)
			return err
		})
	}
	untag := func(questionID int, _ []string) error {
		return s.Atomic(context.Background(), func(tx *store.Tx) error {
			_, err := tags.Reconcile(tx, questionID, nil)
			return err
		})
	}
	detach := func(questionID int, _ []string) error {
		return s.Atomic(context.Background(), func(tx *store.Tx) error {
			_, err := tags.Detach(tx, questionID)
			return err
		})
	}

	for round := 0; round < 10; round++ {
		both(attach)
		assert.Equal(t, 2, tagCounts(t, db)["react"])
		if round%2 == 0 {
			both(untag)
		} else {
			both(detach)
		}
	}

	for _, n := range tagCounts(t, db) {
		assert.Zero(t, n)
	}
	assertCountsMatchLinks(t, db)
}

func TestAddedTagsKeepDesiredPositions(t *testing.T) {
	db := dbtest.Require(t, pg)
	s := store.New(db)
	q := newQuestion(t, db, "order")

	ch := reconcile(t, s, q.ID, "zeta", "alpha", "mu")

	assert.Equal(t, []string{"zeta", "alpha", "mu"}, names(ch.Tags))
	assert.Equal(t, []string{"alpha", "mu", "zeta"}, names(ch.Added))
}
