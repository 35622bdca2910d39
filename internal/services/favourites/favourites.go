// Package favourites хранит идентификаторы планов, отмеченных пользователем,
// только на время жизни процесса.
package favourites

import (
	"slices"
	"sync"
)

// Store: множество избранных планов.
type Store struct {
	mu    sync.RWMutex
	plans map[int]struct{}
}

// New создаёт пустое множество.
func New() *Store {
	return &Store{plans: make(map[int]struct{})}
}

// Toggle добавляет план, если его нет, иначе удаляет.
// Возвращает членство после переключения.
func (s *Store) Toggle(planID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[planID]; ok {
		delete(s.plans, planID)
		return false
	}
	s.plans[planID] = struct{}{}
	return true
}

// IsFavourite сообщает, отмечен ли план.
func (s *Store) IsFavourite(planID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.plans[planID]
	return ok
}

// List возвращает отсортированную копию множества.
func (s *Store) List() []int {
	s.mu.RLock()
	ids := make([]int, 0, len(s.plans))
	for id := range s.plans {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}
