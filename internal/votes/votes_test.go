package votes_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/database/dbtest"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/votes"
)

var pg *dbtest.Instance

func TestMain(m *testing.M) {
	dbtest.Main(m, &pg)
}

type fixture struct {
	db       *gorm.DB
	store    *store.Store
	users    []models.User
	question models.Question
	answer   models.Answer
}

func setup(t *testing.T, nUsers int) *fixture {
	t.Helper()
	db := dbtest.Require(t, pg)
	f := &fixture{db: db, store: store.New(db)}

	for i := range nUsers {
		name := "user" + string(rune('a'+i))
		u := models.User{Name: name, Username: name, Email: name + "@example.com"}
		require.NoError(t, db.Create(&u).Error)
		f.users = append(f.users, u)
	}
	f.question = models.Question{Title: "Why is my slice empty", Content: "details", AuthorID: f.users[0].ID}
	require.NoError(t, db.Create(&f.question).Error)
	f.answer = models.Answer{QuestionID: f.question.ID, AuthorID: f.users[0].ID, Content: "append returns a new slice"}
	require.NoError(t, db.Create(&f.answer).Error)
	return f
}

func (f *fixture) vote(t *testing.T, actor int, targetID int, tt models.TargetType, vt models.VoteType) votes.Result {
	t.Helper()
	var res votes.Result
	err := f.store.Atomic(context.Background(), func(tx *store.Tx) error {
		var err error
		res, _, err = votes.Apply(tx, votes.Request{ActorID: actor, TargetID: targetID, TargetType: tt, VoteType: vt})
		return err
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) answerCounters(t *testing.T) (int, int) {
	t.Helper()
	var a models.Answer
	require.NoError(t, f.db.First(&a, f.answer.ID).Error)
	return a.Upvotes, a.Downvotes
}

func (f *fixture) questionCounters(t *testing.T, db *gorm.DB) (int, int) {
	t.Helper()
	var q models.Question
	require.NoError(t, db.First(&q, f.question.ID).Error)
	return q.Upvotes, q.Downvotes
}

func countVotes(t *testing.T, db *gorm.DB, targetID int, tt models.TargetType, vt models.VoteType) int {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("action_id = ? AND action_type = ? AND vote_type = ?", targetID, tt, vt).
		Count(&n).Error)
	return int(n)
}

func TestAnswerVoteScenario(t *testing.T) {
	f := setup(t, 1)
	u1 := f.users[0].ID

	up, down := f.answerCounters(t)
	assert.Equal(t, [2]int{0, 0}, [2]int{up, down})

	res := f.vote(t, u1, f.answer.ID, models.TargetAnswer, models.VoteUp)
	assert.Equal(t, votes.Result{Upvoted: true}, res)
	up, down = f.answerCounters(t)
	assert.Equal(t, [2]int{1, 0}, [2]int{up, down})

	res = f.vote(t, u1, f.answer.ID, models.TargetAnswer, models.VoteDown)
	assert.Equal(t, votes.Result{Downvoted: true}, res)
	up, down = f.answerCounters(t)
	assert.Equal(t, [2]int{0, 1}, [2]int{up, down})

	res = f.vote(t, u1, f.answer.ID, models.TargetAnswer, models.VoteDown)
	assert.Equal(t, votes.Result{}, res)
	up, down = f.answerCounters(t)
	assert.Equal(t, [2]int{0, 0}, [2]int{up, down})
}

func TestVoteTwiceTogglesOff(t *testing.T) {
	f := setup(t, 2)
	voter := f.users[1].ID

	f.vote(t, voter, f.question.ID, models.TargetQuestion, models.VoteUp)
	f.vote(t, voter, f.question.ID, models.TargetQuestion, models.VoteUp)

	up, down := f.questionCounters(t, f.db)
	assert.Zero(t, up)
	assert.Zero(t, down)
	assert.Zero(t, countVotes(t, f.db, f.question.ID, models.TargetQuestion, models.VoteUp))
}

func TestCountersMatchVoteRows(t *testing.T) {
	f := setup(t, 4)
	sequence := []struct {
		actor int
		vt    models.VoteType
	}{
		{0, models.VoteUp}, {1, models.VoteUp}, {2, models.VoteDown}, {1, models.VoteDown},
		{3, models.VoteUp}, {0, models.VoteUp}, {2, models.VoteUp}, {3, models.VoteUp},
		{1, models.VoteUp}, {0, models.VoteDown},
	}

	for _, step := range sequence {
		f.vote(t, f.users[step.actor].ID, f.question.ID, models.TargetQuestion, step.vt)

		up, down := f.questionCounters(t, f.db)
		assert.Equal(t, countVotes(t, f.db, f.question.ID, models.TargetQuestion, models.VoteUp), up)
		assert.Equal(t, countVotes(t, f.db, f.question.ID, models.TargetQuestion, models.VoteDown), down)
	}

	for _, u := range f.users {
		var n int64
		require.NoError(t, f.db.Model(&models.Vote{}).
			Where("author_id = ? AND action_id = ? AND action_type = ?", u.ID, f.question.ID, models.TargetQuestion).
			Count(&n).Error)
		assert.LessOrEqual(t, n, int64(1))
	}
}

func TestConcurrentVotersAllCount(t *testing.T) {
	f := setup(t, 8)

	var wg sync.WaitGroup
	for _, u := range f.users {
		wg.Add(1)
		go func(actor int) {
			defer wg.Done()
			err := f.store.Atomic(context.Background(), func(tx *store.Tx) error {
				_, _, err := votes.Apply(tx, votes.Request{
					ActorID: actor, TargetID: f.answer.ID, TargetType: models.TargetAnswer, VoteType: models.VoteUp,
				})
				return err
			})
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()

	up, down := f.answerCounters(t)
	assert.Equal(t, len(f.users), up)
	assert.Zero(t, down)
}

func TestConcurrentVotesBySameActorKeepOneRow(t *testing.T) {
	f := setup(t, 1)
	actor := f.users[0].ID
	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.store.Atomic(context.Background(), func(tx *store.Tx) error {
				_, _, err := votes.Apply(tx, votes.Request{
					ActorID: actor, TargetID: f.answer.ID, TargetType: models.TargetAnswer, VoteType: models.VoteUp,
				})
				return err
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.True(t, apperr.Is(apperr.From(err), apperr.KindConflict), "unexpected error: %v", err)
		}
	}

	rows := countVotes(t, f.db, f.answer.ID, models.TargetAnswer, models.VoteUp)
	assert.LessOrEqual(t, rows, 1)
	up, down := f.answerCounters(t)
	assert.Equal(t, rows, up)
	assert.Zero(t, down)
}

func TestMissingTargetAbortsVote(t *testing.T) {
	f := setup(t, 1)

	err := f.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, _, err := votes.Apply(tx, votes.Request{
			ActorID: f.users[0].ID, TargetID: 9999, TargetType: models.TargetQuestion, VoteType: models.VoteUp,
		})
		return err
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	var n int64
	require.NoError(t, f.db.Model(&models.Vote{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAnonymousActorRejected(t *testing.T) {
	f := setup(t, 1)

	err := f.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, _, err := votes.Apply(tx, votes.Request{
			TargetID: f.question.ID, TargetType: models.TargetQuestion, VoteType: models.VoteUp,
		})
		return err
	})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

var errInjected = errors.New("injected failure")

func TestFailureBeforeCounterWriteLeavesNoVote(t *testing.T) {
	f := setup(t, 2)
	u1 := f.users[1].ID

	// A separate connection whose updates fail: the vote insert succeeds,
	// the counter update that follows it does not.
	faulty, err := gorm.Open(postgres.Open(pg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := faulty.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, faulty.Callback().Update().Before("gorm:update").
		Register("test:fail_counter", func(db *gorm.DB) {
			_ = db.AddError(errInjected)
		}))

	err = store.New(faulty).Atomic(context.Background(), func(tx *store.Tx) error {
		_, _, err := votes.Apply(tx, votes.Request{
			ActorID: u1, TargetID: f.question.ID, TargetType: models.TargetQuestion, VoteType: models.VoteUp,
		})
		return err
	})
	require.ErrorIs(t, err, errInjected)

	up, down := f.questionCounters(t, f.db)
	assert.Zero(t, up)
	assert.Zero(t, down)

	var n int64
	require.NoError(t, f.db.Model(&models.Vote{}).
		Where("author_id = ? AND action_id = ? AND action_type = ?", u1, f.question.ID, models.TargetQuestion).
		Count(&n).Error)
	assert.Zero(t, n)
}

func TestApplyOnceReplaysStoredResult(t *testing.T) {
	f := setup(t, 2)
	req := votes.Request{
		ActorID: f.users[1].ID, TargetID: f.question.ID, TargetType: models.TargetQuestion, VoteType: models.VoteUp,
	}
	key := uuid.NewString()

	apply := func() (votes.Result, bool) {
		var res votes.Result
		var replayed bool
		require.NoError(t, f.store.Atomic(context.Background(), func(tx *store.Tx) error {
			var err error
			res, replayed, err = votes.ApplyOnce(tx, key, req)
			return err
		}))
		return res, replayed
	}

	first, replayed := apply()
	assert.Equal(t, votes.Result{Upvoted: true}, first)
	assert.False(t, replayed)

	second, replayed := apply()
	assert.Equal(t, first, second)
	assert.True(t, replayed)

	up, _ := f.questionCounters(t, f.db)
	assert.Equal(t, 1, up, "a replay must not toggle the vote off")
}

func TestApplyOnceRejectsReusedKey(t *testing.T) {
	f := setup(t, 2)
	key := uuid.NewString()
	req := votes.Request{
		ActorID: f.users[1].ID, TargetID: f.question.ID, TargetType: models.TargetQuestion, VoteType: models.VoteUp,
	}

	require.NoError(t, f.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, _, err := votes.ApplyOnce(tx, key, req)
		return err
	}))

	req.TargetID, req.TargetType = f.answer.ID, models.TargetAnswer
	err := f.store.Atomic(context.Background(), func(tx *store.Tx) error {
		_, _, err := votes.ApplyOnce(tx, key, req)
		return err
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
