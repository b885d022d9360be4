package opds

import (
	"encoding/json"
	"strings"
)

// Wire structures for OPDS 2.0 JSON feeds. Only the subset needed to drive
// a reading catalog is modeled; several fields accept both the scalar and
// the array form the format allows.

type feed2 struct {
	Metadata     feedMeta2      `json:"metadata"`
	Links        []link2        `json:"links"`
	Navigation   []link2        `json:"navigation"`
	Publications []publication2 `json:"publications"`
}

type feedMeta2 struct {
	Title string `json:"title"`
}

type publication2 struct {
	Metadata pubMeta2 `json:"metadata"`
	Links    []link2  `json:"links"`
	Images   []link2  `json:"images"`
}

type pubMeta2 struct {
	Type        string      `json:"@type"`
	Title       textValue   `json:"title"`
	Identifier  string      `json:"identifier"`
	Author      nameList    `json:"author"`
	Description string      `json:"description"`
	Publisher   nameList    `json:"publisher"`
	Published   string      `json:"published"`
	Subject     nameList    `json:"subject"`
	Audience    textValue   `json:"audience"`
	Fiction     *bool       `json:"fiction"`
	BelongsTo   *belongsTo2 `json:"belongsTo"`
}

type belongsTo2 struct {
	Collection collectionList `json:"collection"`
}

type link2 struct {
	Href       string      `json:"href"`
	Type       string      `json:"type"`
	Rel        relList     `json:"rel"`
	Title      string      `json:"title"`
	Properties *linkProps2 `json:"properties"`
}

type linkProps2 struct {
	IndirectAcquisition []indirect2 `json:"indirectAcquisition"`
}

type indirect2 struct {
	Type  string      `json:"type"`
	Child []indirect2 `json:"child"`
}

// hasRel reports whether the link carries the given relation
func (l *link2) hasRel(rel string) bool {
	for _, r := range l.Rel {
		if r == rel {
			return true
		}
	}
	return false
}

// relList accepts "rel": "x" and "rel": ["x", "y"]
type relList []string

func (r *relList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = relList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = relList(many)
	return nil
}

// textValue accepts a plain string or a language-map object, flattening the
// latter to its first value.
type textValue string

func (t *textValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = textValue(s)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for _, v := range m {
		*t = textValue(v)
		break
	}
	return nil
}

// nameList accepts a string, a {name} object, or an array mixing both
type nameList []string

func (n *nameList) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, item := range raw {
			var one nameList
			if err := one.UnmarshalJSON(item); err != nil {
				return err
			}
			*n = append(*n, one...)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*n = append(*n, s)
		}
		return nil
	}

	var obj struct {
		Name textValue `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name != "" {
		*n = append(*n, string(obj.Name))
	}
	return nil
}

// collectionEntry is one belongsTo collection: a name with optional links
type collectionEntry struct {
	Name  string
	Links []link2
}

// collectionList accepts a string, a {name, links} object, or an array
type collectionList []collectionEntry

func (c *collectionList) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, item := range raw {
			var one collectionList
			if err := one.UnmarshalJSON(item); err != nil {
				return err
			}
			*c = append(*c, one...)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*c = append(*c, collectionEntry{Name: s})
		}
		return nil
	}

	var obj struct {
		Name  textValue `json:"name"`
		Links []link2   `json:"links"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name != "" {
		*c = append(*c, collectionEntry{Name: string(obj.Name), Links: obj.Links})
	}
	return nil
}
