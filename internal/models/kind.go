// ABOUTME: Record kinds and the collections that back them.
// ABOUTME: Each kind carries its ID prefix, collection name, and owner reference field.
package models

import (
	"strings"
	"time"
)

// Kind describes one record type and where it lives in the store.
type Kind struct {
	// Name is the singular, hyphenated name used by routes, tools, and commands.
	Name string
	// Prefix is the fixed part of every identifier, e.g. "workout" in "workout12".
	Prefix string
	// Collection is the store collection holding documents of this kind.
	Collection string
	// OwnerField is the JSON field referencing a user, empty for users themselves.
	OwnerField string
	// CheckOwner makes scoped reads resolve the owning user before filtering.
	CheckOwner bool
}

var (
	KindUser        = Kind{Name: "user", Prefix: "user", Collection: "Users"}
	KindWorkout     = Kind{Name: "workout", Prefix: "workout", Collection: "Workouts", OwnerField: "userId", CheckOwner: true}
	KindNutrition   = Kind{Name: "nutrition", Prefix: "nutrition", Collection: "Nutrition", OwnerField: "userId", CheckOwner: true}
	KindAchievement = Kind{Name: "achievement", Prefix: "achievement", Collection: "Achievements", OwnerField: "userId", CheckOwner: true}
	KindMetric      = Kind{Name: "metric", Prefix: "metric", Collection: "Metrics", OwnerField: "userId", CheckOwner: true}
	KindGoal        = Kind{Name: "goal", Prefix: "goal", Collection: "Goals", OwnerField: "userId", CheckOwner: true}
	// Social posts are scoped by author and never check that the author exists.
	KindSocialPost = Kind{Name: "social-post", Prefix: "social", Collection: "Social", OwnerField: "authorId"}
)

// AllKinds lists every record kind, users first.
var AllKinds = []Kind{
	KindUser, KindWorkout, KindNutrition, KindAchievement, KindMetric, KindGoal, KindSocialPost,
}

// DependentKinds lists the kinds removed when their owning user is deleted.
var DependentKinds = []Kind{
	KindWorkout, KindNutrition, KindAchievement, KindMetric, KindGoal, KindSocialPost,
}

// KindByName looks up a kind by its name, plural form, or collection name (case-insensitive).
func KindByName(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, k := range AllKinds {
		if n == k.Name || n == k.Name+"s" || n == strings.ToLower(k.Collection) || n == k.Prefix {
			return k, true
		}
	}
	return Kind{}, false
}

// Record is implemented by every stored document type.
type Record interface {
	RecordID() string
}

// Input is a decoded request body for a record of type T.
// Validate reports missing or malformed fields; Build assembles the record
// under an allocated identifier, filling defaults relative to now.
type Input[T any] interface {
	Validate() error
	Build(id string, now time.Time) T
}
