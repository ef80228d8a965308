package bot

import "sync"

// selection is a chat's in-progress clinic/doctor choice.
type selection struct {
	PoliValue   string
	DoctorValue string
}

func (s selection) complete() bool { return s.PoliValue != "" && s.DoctorValue != "" }

type pendingSet struct {
	mu sync.Mutex
	m  map[int64]selection
}

func newPendingSet() *pendingSet { return &pendingSet{m: map[int64]selection{}} }

func (p *pendingSet) get(chatID int64) selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.m[chatID]
}

func (p *pendingSet) clear(chatID int64) {
	p.mu.Lock()
	delete(p.m, chatID)
	p.mu.Unlock()
}

// setPoli starts a new choice; any doctor picked for a previous clinic is dropped.
func (p *pendingSet) setPoli(chatID int64, value string) {
	p.mu.Lock()
	p.m[chatID] = selection{PoliValue: value}
	p.mu.Unlock()
}

// setDoctor reports false when no clinic is pending.
func (p *pendingSet) setDoctor(chatID int64, value string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel, ok := p.m[chatID]
	if !ok || sel.PoliValue == "" {
		return false
	}
	sel.DoctorValue = value
	p.m[chatID] = sel
	return true
}
