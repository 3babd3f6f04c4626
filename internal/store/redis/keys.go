package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = "linknest:bookmark:"
	// KeyPrefixOwnerSet is the prefix for the per-owner set of bookmark IDs
	KeyPrefixOwnerSet = "linknest:owner:"
	// KeyPrefixFeed is the prefix for the per-owner change-feed channel
	KeyPrefixFeed = "linknest:feed:"
)

// BookmarkKey returns the Redis key for a bookmark by ID
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerSetKey returns the key for the set of an owner's bookmark IDs
func OwnerSetKey(ownerID string) string {
	return KeyPrefixOwnerSet + ownerID + ":bookmarks"
}

// FeedChannel returns the Pub/Sub channel carrying an owner's change feed
func FeedChannel(ownerID string) string {
	return KeyPrefixFeed + ownerID
}
