// Package tags reconciles a question's tag set with a desired list of names.
package tags

import (
	"sort"
	"strings"

	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
)

// Normalize trims names and drops empty and case-insensitive duplicates,
// keeping the first spelling and the original order.
func Normalize(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// Diff compares the question's current tags with the desired names.
// toAdd keeps the desired order; toRemove keeps the current order.
func Diff(current []models.Tag, desired []string) (toAdd []string, toRemove []models.Tag) {
	desired = Normalize(desired)

	have := make(map[string]bool, len(current))
	for _, t := range current {
		have[strings.ToLower(t.Name)] = true
	}
	want := make(map[string]bool, len(desired))
	for _, n := range desired {
		want[strings.ToLower(n)] = true
	}

	for _, n := range desired {
		if !have[strings.ToLower(n)] {
			toAdd = append(toAdd, n)
		}
	}
	for _, t := range current {
		if !want[strings.ToLower(t.Name)] {
			toRemove = append(toRemove, t)
		}
	}
	return toAdd, toRemove
}

// Change describes what Reconcile did.
type Change struct {
	Added   []models.Tag
	Removed []models.Tag
	// Tags is the question's tag set afterwards, in order.
	Tags []models.Tag
}

// tagWrite is one change to a shared tags row.
type tagWrite struct {
	key      string
	remove   *models.Tag
	add      string
	position int
}

// byLockOrder sorts writes by lower(name), the key of the unique tag index.
// Every transaction touching tags rows locks them in this order.
func byLockOrder(writes []tagWrite) {
	sort.Slice(writes, func(i, j int) bool { return writes[i].key < writes[j].key })
}

// Reconcile moves the question's tags to desired inside tx. New names are
// upserted and counted, dropped tags are uncounted and unlinked. Kept tags
// stay in place and added tags follow them in desired order.
func Reconcile(tx *store.Tx, questionID int, desired []string) (Change, error) {
	current, err := tx.QuestionTags(questionID)
	if err != nil {
		return Change{}, err
	}
	toAdd, toRemove := Diff(current, desired)

	pos := 0
	if len(toAdd) > 0 {
		if pos, err = tx.NextTagPosition(questionID); err != nil {
			return Change{}, err
		}
	}

	writes := make([]tagWrite, 0, len(toAdd)+len(toRemove))
	for i := range toRemove {
		writes = append(writes, tagWrite{key: strings.ToLower(toRemove[i].Name), remove: &toRemove[i]})
	}
	for i, name := range toAdd {
		writes = append(writes, tagWrite{key: strings.ToLower(name), add: name, position: pos + i})
	}
	byLockOrder(writes)

	var ch Change
	removedIDs := make([]int, 0, len(toRemove))
	for _, w := range writes {
		if w.remove != nil {
			if err := tx.AddTagCounter(w.remove.ID, -1); err != nil {
				return Change{}, err
			}
			removedIDs = append(removedIDs, w.remove.ID)
			ch.Removed = append(ch.Removed, *w.remove)
			continue
		}
		tag, err := tx.UpsertTag(w.add)
		if err != nil {
			return Change{}, err
		}
		if err := tx.LinkTag(tag.ID, questionID, w.position); err != nil {
			return Change{}, err
		}
		ch.Added = append(ch.Added, *tag)
	}
	if len(removedIDs) > 0 {
		if err := tx.UnlinkTags(questionID, removedIDs...); err != nil {
			return Change{}, err
		}
	}

	ch.Tags, err = tx.QuestionTags(questionID)
	if err != nil {
		return Change{}, err
	}
	for _, t := range ch.Added {
		tx.Touch(events.TagPath(t.ID))
	}
	for _, t := range ch.Removed {
		tx.Touch(events.TagPath(t.ID))
	}
	return ch, nil
}

// Detach unlinks every tag from the question and uncounts each one. The
// returned tags keep link order.
func Detach(tx *store.Tx, questionID int) ([]models.Tag, error) {
	current, err := tx.QuestionTags(questionID)
	if err != nil {
		return nil, err
	}
	writes := make([]tagWrite, 0, len(current))
	for i := range current {
		writes = append(writes, tagWrite{key: strings.ToLower(current[i].Name), remove: &current[i]})
	}
	byLockOrder(writes)

	for _, w := range writes {
		if err := tx.AddTagCounter(w.remove.ID, -1); err != nil {
			return nil, err
		}
		tx.Touch(events.TagPath(w.remove.ID))
	}
	if err := tx.UnlinkTags(questionID); err != nil {
		return nil, err
	}
	return current, nil
}
