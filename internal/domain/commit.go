package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrMissingHeadCommit is returned when a push event has no head-commit section.
var ErrMissingHeadCommit = errors.New("push event has no head commit")

// CommitRecord is the canonical "latest commit" singleton. It is replaced
// wholesale on each push event; no history is retained.
type CommitRecord struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
	Repository  string    `json:"repository"`
	CommittedAt time.Time `json:"committedAt"`
	Branch      string    `json:"branch,omitempty"`
}

// HeadCommit is the head-commit section of a GitHub push event.
type HeadCommit struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Timestamp *time.Time    `json:"timestamp"`
	URL       string        `json:"url"`
	Author    *CommitAuthor `json:"author"`
}

// CommitAuthor identifies who authored the head commit.
type CommitAuthor struct {
	Name string `json:"name"`
}

// PushRepository is the repository section of a GitHub push event.
type PushRepository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
}

// PushEvent is the subset of the GitHub push payload the commit cache consumes.
type PushEvent struct {
	Ref        string          `json:"ref"`
	HeadCommit *HeadCommit     `json:"head_commit"`
	Repository *PushRepository `json:"repository"`
}

const branchRefPrefix = "refs/heads/"

// NormalizePush extracts a CommitRecord from a push event, applying documented
// fallbacks for any missing field. It fails only when the head commit is absent.
func NormalizePush(event PushEvent, now time.Time) (CommitRecord, error) {
	head := event.HeadCommit
	if head == nil {
		return CommitRecord{}, ErrMissingHeadCommit
	}

	record := CommitRecord{
		ID:          head.ID,
		Message:     head.Message,
		URL:         head.URL,
		CommittedAt: now.UTC(),
	}
	if record.ID == "" {
		record.ID = "unknown"
	}
	if record.Message == "" {
		record.Message = "No commit message"
	}
	if head.Author != nil && head.Author.Name != "" {
		record.Author = head.Author.Name
	} else {
		record.Author = "Unknown"
	}
	if head.Timestamp != nil {
		record.CommittedAt = head.Timestamp.UTC()
	}
	if event.Repository != nil {
		record.Repository = event.Repository.FullName
		if record.URL == "" {
			record.URL = event.Repository.HTMLURL
		}
	}
	if event.Ref != "" {
		record.Branch = strings.TrimPrefix(event.Ref, branchRefPrefix)
	}

	return record, nil
}
