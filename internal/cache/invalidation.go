package cache

import (
	"strconv"
	"strings"

	"engagement/internal/models"

	"github.com/google/uuid"
)

// Namespace is the entity type a write invalidates for.
type Namespace string

const (
	NamespaceComment Namespace = "comment"
	NamespaceReview  Namespace = "review"
	NamespaceVote    Namespace = "vote"
	NamespaceLike    Namespace = "like"
	NamespaceStats   Namespace = "engagement"
)

// Prefix returns the key prefix owned by the namespace.
func (n Namespace) Prefix() string {
	return string(n) + ":"
}

// invalidationTable maps a namespace to the key templates a write must clear.
// Templates ending in '*' are removed with DeleteMatching. Every template
// starts with its namespace prefix so a write never clears another type's keys.
var invalidationTable = map[Namespace][]string{
	NamespaceComment: {
		"comment:{id}",
		"comment:chapter:{chapter}:*",
		"comment:user:{user}:*",
	},
	NamespaceReview: {
		"review:{id}",
		"review:novel:{novel}:*",
		"review:user:{user}:*",
	},
	NamespaceVote: {
		"vote:{type}:{id}:*",
	},
	NamespaceLike: {
		"like:{type}:{id}",
	},
	// Comment activity is a trailing-window aggregate and only expires by TTL.
	NamespaceStats: {
		"engagement:novel:{novel}:ratings",
		"engagement:{reports}:*",
	},
}

// Scope carries the identifiers a write touched. Zero fields leave the
// templates that need them out.
type Scope struct {
	ID         uint
	ChapterID  uint
	NovelID    uint
	UserID     uuid.UUID
	EntityType models.EntityType
	// Reports selects the moderation dashboards of the stats namespace.
	Reports bool
}

// CommentScope returns the invalidation scope of a comment row.
func CommentScope(c *models.Comment) Scope {
	return Scope{ID: c.ID, ChapterID: c.ChapterID, UserID: c.UserID}
}

// ReviewScope returns the invalidation scope of a review row.
func ReviewScope(r *models.Review) Scope {
	return Scope{ID: r.ID, NovelID: r.NovelID, UserID: r.UserID}
}

func (s Scope) values() map[string]string {
	v := map[string]string{}
	if s.ID != 0 {
		v["{id}"] = strconv.FormatUint(uint64(s.ID), 10)
	}
	if s.ChapterID != 0 {
		v["{chapter}"] = strconv.FormatUint(uint64(s.ChapterID), 10)
	}
	if s.NovelID != 0 {
		v["{novel}"] = strconv.FormatUint(uint64(s.NovelID), 10)
	}
	if s.UserID != uuid.Nil {
		v["{user}"] = s.UserID.String()
	}
	if s.EntityType != "" {
		v["{type}"] = string(s.EntityType)
	}
	if s.Reports {
		v["{reports}"] = "reports"
	}
	return v
}

// Plan is the resolved set of keys and patterns for one invalidation.
type Plan struct {
	Keys     []string
	Patterns []string
}

// PlanFor renders the templates of ns against scope.
func PlanFor(ns Namespace, scope Scope) Plan {
	values := scope.values()
	var plan Plan
	for _, tpl := range invalidationTable[ns] {
		key, ok := render(tpl, values)
		if !ok {
			continue
		}
		if strings.HasSuffix(key, "*") {
			plan.Patterns = append(plan.Patterns, key)
		} else {
			plan.Keys = append(plan.Keys, key)
		}
	}
	return plan
}

func render(tpl string, values map[string]string) (string, bool) {
	out := tpl
	for {
		start := strings.IndexByte(out, '{')
		if start < 0 {
			return out, true
		}
		end := strings.IndexByte(out[start:], '}')
		if end < 0 {
			return "", false
		}
		name := out[start : start+end+1]
		val, ok := values[name]
		if !ok {
			return "", false
		}
		out = out[:start] + val + out[start+end+1:]
	}
}
