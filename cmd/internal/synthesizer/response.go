package synthesizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"content-pipeline/cmd/internal/llm"
)

var requiredKeys = []string{"title", "meta_description", "tags", "body"}

// Response is the validated JSON object returned by the model.
type Response struct {
	Title           string
	MetaDescription string
	Tags            []string
	Body            string
}

// ParseResponse locates the JSON object in raw model output, repairs common
// formatting defects when it does not decode as is, and checks that every required key is present.
func ParseResponse(raw string) (*Response, error) {
	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return nil, errors.New("no JSON object in model output")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		// 유효하지 않을 때만 정리한다. 정리는 문자열 안의 공백과 쉼표도 바꾼다
		fields = nil
		if err2 := json.Unmarshal([]byte(llm.CleanJSON(llm.StripCodeFences(obj))), &fields); err2 != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	for _, key := range requiredKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("missing key %q", key)
		}
	}

	var r Response
	if err := json.Unmarshal(fields["title"], &r.Title); err != nil {
		return nil, fmt.Errorf("decode title: %w", err)
	}
	if err := json.Unmarshal(fields["meta_description"], &r.MetaDescription); err != nil {
		return nil, fmt.Errorf("decode meta_description: %w", err)
	}
	if err := json.Unmarshal(fields["body"], &r.Body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	tags, err := decodeTags(fields["tags"])
	if err != nil {
		return nil, err
	}

	r.Title = strings.TrimSpace(r.Title)
	r.MetaDescription = strings.TrimSpace(r.MetaDescription)
	r.Body = strings.TrimSpace(r.Body)
	r.Tags = DedupTags(tags)

	if r.Title == "" {
		return nil, errors.New("empty title")
	}
	if r.Body == "" {
		return nil, errors.New("empty body")
	}
	return &r, nil
}

// decodeTags accepts a JSON list or a comma separated string.
func decodeTags(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return strings.Split(s, ","), nil
}

// DedupTags trims tags and drops empties and repeats, keeping the first occurrence.
func DedupTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
