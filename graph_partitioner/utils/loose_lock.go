package utils

import "sync"

// LooseLock is a writer-exclusive lock whose writer may temporarily let
// readers in (AllowRead/DisallowRead) while still keeping other writers out.
type LooseLock struct {
	mu   sync.RWMutex
	cond *sync.Cond
	held bool
}

func NewLooseLock() *LooseLock {
	ans := &LooseLock{}
	ans.cond = sync.NewCond(&(ans.mu))
	return ans
}

func (p *LooseLock) LockWrite() {
	p.mu.Lock()
	for p.held {
		p.cond.Wait()
	}
	p.held = true
}

func (p *LooseLock) UnlockWrite() {
	p.held = false
	p.cond.Signal()
	p.mu.Unlock()
}

// AllowRead must be paired with DisallowRead while the write lock is held.
func (p *LooseLock) AllowRead() {
	p.mu.Unlock()
}

func (p *LooseLock) DisallowRead() {
	p.mu.Lock()
}

func (p *LooseLock) LockRead() {
	p.mu.RLock()
}

func (p *LooseLock) UnlockRead() {
	p.mu.RUnlock()
}

func (p *LooseLock) WithWrite(f func()) {
	p.LockWrite()
	defer p.UnlockWrite()
	f()
}

func (p *LooseLock) WithRead(f func()) {
	p.LockRead()
	defer p.UnlockRead()
	f()
}
