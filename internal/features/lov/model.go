package lov

import "time"

// Entry is one list-of-values item. Key is the stored value; Label is what
// the UI shows. Either is accepted when validating field data.
type Entry struct {
	Key   string `bson:"key" json:"key"`
	Label string `bson:"label" json:"label"`
}

// CachedData is the persisted snapshot of one provider's entries.
type CachedData struct {
	CacheKey  string    `bson:"cache_key" json:"cacheKey"`
	Kind      string    `bson:"kind" json:"kind"`
	Entries   []Entry   `bson:"entries" json:"entries"`
	FetchedAt time.Time `bson:"fetched_at" json:"fetchedAt"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
}

// Expired reports whether the snapshot is past its time-to-live.
func (c *CachedData) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
