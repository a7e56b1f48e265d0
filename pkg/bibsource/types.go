package bibsource

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// AuthorDetail is the normalized shape of one external author record. The
// raw source payloads are duck-typed (fields appear as a bare string, a
// list, or an annotated object depending on the record); everything is
// flattened here at the client boundary so the resolvers never branch on
// payload shape.
type AuthorDetail struct {
	ExternalID     string   `json:"external_id"`
	Name           string   `json:"name"`
	PersonalName   string   `json:"personal_name"`
	AlternateNames []string `json:"alternate_names"`
}

// RealName returns the source's best "real name" for the author: the
// personal name when declared, the display name otherwise.
func (d *AuthorDetail) RealName() string {
	if d.PersonalName != "" {
		return d.PersonalName
	}
	return d.Name
}

// AuthorSummary is one row of an author autocomplete search.
type AuthorSummary struct {
	ExternalID     string   `json:"external_id"`
	Name           string   `json:"name"`
	AlternateNames []string `json:"alternate_names"`
}

// WorkResult is one row of a work search.
type WorkResult struct {
	ExternalID        string   `json:"external_id"`
	Title             string   `json:"title"`
	AuthorExternalIDs []string `json:"author_external_ids"`
	AuthorNames       []string `json:"author_names"`
}

// stringList accepts both a bare string and a list of strings, since the
// source emits either depending on the record.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = stringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.WithStack(err)
	}
	*s = stringList(many)
	return nil
}

// textValue accepts a bare string or an annotated object like
// {"type": "/type/text", "value": "..."}.
type textValue string

func (t *textValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = textValue(single)
		return nil
	}

	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.WithStack(err)
	}
	*t = textValue(obj.Value)
	return nil
}

// externalKey strips the record-type prefix from a source key, e.g.
// "/authors/OL26320A" -> "OL26320A".
func externalKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

type rawAuthor struct {
	Key            string     `json:"key"`
	Name           textValue  `json:"name"`
	PersonalName   textValue  `json:"personal_name"`
	AlternateNames stringList `json:"alternate_names"`
}

func (r *rawAuthor) normalize() *AuthorDetail {
	return &AuthorDetail{
		ExternalID:     externalKey(r.Key),
		Name:           string(r.Name),
		PersonalName:   string(r.PersonalName),
		AlternateNames: []string(r.AlternateNames),
	}
}

type rawAuthorSearch struct {
	Docs []struct {
		Key            string     `json:"key"`
		Name           textValue  `json:"name"`
		AlternateNames stringList `json:"alternate_names"`
	} `json:"docs"`
}

type rawWorkSearch struct {
	Docs []struct {
		Key        string     `json:"key"`
		Title      textValue  `json:"title"`
		AuthorKey  stringList `json:"author_key"`
		AuthorName stringList `json:"author_name"`
	} `json:"docs"`
}
