package session

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*userLock)}
}

// Lock blocks until the caller owns userID and returns the matching unlock.
// Entries are dropped once no caller holds or waits for them.
func (l *Locker) Lock(userID string) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	return func() { l.release(userID, ul) }
}

func (l *Locker) release(userID string, ul *userLock) {
	ul.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

// active reports how many users currently hold or wait for a lock.
func (l *Locker) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
