package mutex

import "sync"

// KeyedMutex serializes critical sections per string key. Mutexes are kept
// for the lifetime of the process, which is fine for the expected key
// cardinality (one key per active sender).
type KeyedMutex struct {
	muMap sync.Map
}

func (km *KeyedMutex) Lock(key string) {
	mu, _ := km.muMap.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

func (km *KeyedMutex) Unlock(key string) {
	mu, ok := km.muMap.Load(key)
	if ok {
		mu.(*sync.Mutex).Unlock()
	}
}
