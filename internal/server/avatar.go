package server

import "math/rand"

// defaultAvatars is the fixed pool drawn from when a joiner does not bring
// their own avatar.
var defaultAvatars = []string{"🦊", "🐼", "🦁", "🐸", "🦉", "🐙", "🦄", "🐯"}

// avatarPool hands out emoji identifiers so that concurrently-held avatars
// are always pairwise distinct. Releasing a player's avatar returns its slot
// to the free set for the next joiner.
type avatarPool struct {
	pool     []string
	assigned map[string]string // playerID → avatar
}

func newAvatarPool(pool []string) *avatarPool {
	if len(pool) == 0 {
		pool = defaultAvatars
	}
	return &avatarPool{
		pool:     pool,
		assigned: make(map[string]string),
	}
}

// Assign picks a random unused avatar for the player. When the requested
// avatar is free it is honored; an exhausted pool yields an empty string.
func (a *avatarPool) Assign(playerID, requested string) string {
	if requested != "" && !a.inUse(requested) {
		a.assigned[playerID] = requested
		return requested
	}

	free := make([]string, 0, len(a.pool))
	for _, avatar := range a.pool {
		if !a.inUse(avatar) {
			free = append(free, avatar)
		}
	}
	if len(free) == 0 {
		return ""
	}
	avatar := free[rand.Intn(len(free))]
	a.assigned[playerID] = avatar
	return avatar
}

// Release frees the player's avatar slot.
func (a *avatarPool) Release(playerID string) {
	delete(a.assigned, playerID)
}

func (a *avatarPool) inUse(avatar string) bool {
	for _, held := range a.assigned {
		if held == avatar {
			return true
		}
	}
	return false
}
