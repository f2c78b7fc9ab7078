package redis

import (
	"fmt"

	"github.com/mcoot/communityportal/internal/model"
)

// Key prefix for all portal data
const keyPrefix = "portal"

// clientStateKey returns the Redis key for the HASH holding a client's entries
func clientStateKey(clientID model.ClientID) string {
	return fmt.Sprintf("%s:client:%s", keyPrefix, clientID)
}

// contentKey returns the Redis key for a cached content payload
func contentKey(key string) string {
	return fmt.Sprintf("%s:content:%s", keyPrefix, key)
}
