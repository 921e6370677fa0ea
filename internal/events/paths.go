package events

import "strconv"

// Logical page paths named in change events.
const (
	HomePath       = "/"
	TagsPath       = "/tags"
	CommunityPath  = "/community"
	CollectionPath = "/collection"

	// AllQuestionsPath names every question page at once.
	AllQuestionsPath = "/questions/*"
)

func QuestionPath(id int) string { return "/questions/" + strconv.Itoa(id) }

func TagPath(id int) string { return "/tags/" + strconv.Itoa(id) }

func ProfilePath(userID int) string { return "/profile/" + strconv.Itoa(userID) }
