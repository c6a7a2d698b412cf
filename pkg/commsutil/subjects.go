package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectOperationPrefix = "course.op"
	SubjectDispatchEvent   = "course.dispatched"
)

// BuildOperationSubject builds the request subject a backend operation is served on.
// An empty prefix uses SubjectOperationPrefix.
func BuildOperationSubject(prefix, operation string) string {
	if prefix == "" {
		prefix = SubjectOperationPrefix
	}
	return fmt.Sprintf("%s.%s", prefix, safeToken(operation))
}

// BuildDispatchEventSubject builds the granular subject for a functionality's dispatch events.
func BuildDispatchEventSubject(functionality string) string {
	return fmt.Sprintf("%s.%s", SubjectDispatchEvent, safeToken(functionality))
}

// safeToken keeps a name usable as a single subject token.
func safeToken(s string) string {
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}
