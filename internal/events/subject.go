package events

import (
	"strings"
)

// SubjectPrefix is the root of every subject published by the relay.
const SubjectPrefix = "zoo"

// Subject returns the subject for a change: zoo.<collection>.<type>.
func Subject(collection, eventType string) string {
	var b strings.Builder
	b.Grow(len(SubjectPrefix) + len(collection) + len(eventType) + 2)
	b.WriteString(SubjectPrefix)
	b.WriteByte('.')
	b.WriteString(collection)
	b.WriteByte('.')
	b.WriteString(eventType)
	return b.String()
}

// ParseSubject splits a relay subject into collection and event type.
// ok is false for subjects the relay does not produce.
func ParseSubject(subject string) (collection, eventType string, ok bool) {
	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != SubjectPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
