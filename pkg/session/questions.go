package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Question is a numbered question found in an assistant reply.
type Question struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Label renders the question as "Question N".
func (q Question) Label() string {
	return fmt.Sprintf("Question %d", q.Index)
}

var questionRE = regexp.MustCompile(`\*{0,2}Question\s+(\d+)\*{0,2}[:\s]*\*{0,2}([^\n*]+)`)

// ExtractQuestions finds "Question N: title" markers (optionally bolded) in reply.
func ExtractQuestions(reply string) []Question {
	var out []Question
	for _, m := range questionRE.FindAllStringSubmatch(reply, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		title := strings.TrimSpace(m[2])
		if title == "" {
			continue
		}
		out = append(out, Question{Index: n, Title: title})
	}
	return out
}

// SelectivePrefix tags msg with the questions the user chose to answer. The tag
// is added only when a strict, non-empty subset of pending is selected; selected
// indices that are not pending are ignored.
func SelectivePrefix(selected []int, pending []Question, msg string) string {
	if len(pending) == 0 || len(selected) == 0 {
		return msg
	}
	chosen := make(map[int]bool, len(selected))
	for _, n := range selected {
		chosen[n] = true
	}
	var labels []string
	for _, q := range pending {
		if chosen[q.Index] {
			labels = append(labels, q.Label())
		}
	}
	if len(labels) == 0 || len(labels) == len(pending) {
		return msg
	}
	return fmt.Sprintf("[User is responding to %s]\n\n%s", strings.Join(labels, ", "), msg)
}
