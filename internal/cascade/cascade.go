// Package cascade deletes questions and answers together with every row that
// exists only to reference them.
package cascade

import (
	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
	"github.com/emilythestrangee/devflow/backend/internal/tags"
)

// DeleteQuestion removes the question, its saved markers, tag links, votes,
// answers and the answers' votes. Only the author may delete it.
func DeleteQuestion(tx *store.Tx, actorID, questionID int) (*models.Question, error) {
	if actorID == 0 {
		return nil, apperr.Unauthorized()
	}
	q, err := tx.LockQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if q.AuthorID != actorID {
		return nil, apperr.Forbidden("you can only delete your own questions")
	}

	if err := tx.DeleteCollectionsOf(questionID); err != nil {
		return nil, err
	}
	if _, err := tags.Detach(tx, questionID); err != nil {
		return nil, err
	}
	if err := tx.DeleteVotesOn(models.TargetQuestion, questionID); err != nil {
		return nil, err
	}

	// Answer ids first: their votes can only be found through them.
	answerIDs, err := tx.AnswerIDs(questionID)
	if err != nil {
		return nil, err
	}
	if err := tx.DeleteVotesOn(models.TargetAnswer, answerIDs...); err != nil {
		return nil, err
	}
	if err := tx.DeleteAnswers(answerIDs...); err != nil {
		return nil, err
	}

	if err := tx.DeleteQuestion(questionID); err != nil {
		return nil, err
	}

	tx.Touch(events.HomePath, events.QuestionPath(questionID), events.ProfilePath(actorID), events.CollectionPath)
	return q, nil
}

// DeleteAnswer removes the answer and its votes and decrements the parent
// question's answer count. Only the author may delete it.
func DeleteAnswer(tx *store.Tx, actorID, answerID int) (*models.Answer, error) {
	if actorID == 0 {
		return nil, apperr.Unauthorized()
	}
	a, err := tx.LockAnswer(answerID)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != actorID {
		return nil, apperr.Forbidden("you can only delete your own answers")
	}

	if err := tx.AddQuestionCounter(a.QuestionID, "answers", -1); err != nil {
		return nil, err
	}
	if err := tx.DeleteVotesOn(models.TargetAnswer, answerID); err != nil {
		return nil, err
	}
	if err := tx.DeleteAnswers(answerID); err != nil {
		return nil, err
	}

	tx.Touch(events.QuestionPath(a.QuestionID), events.ProfilePath(actorID))
	return a, nil
}
