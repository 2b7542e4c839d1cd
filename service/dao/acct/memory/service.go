// Package memory keeps accounting records in process memory.
package memory

import (
	"github.com/viant/procos/model/acct"
	"github.com/viant/procos/service/dao"
	"github.com/viant/procos/service/dao/store"
)

// Service is an in-memory accounting store listing records in reap order.
type Service struct {
	*store.MemoryStore[int, acct.Record]
}

var _ dao.Service[int, acct.Record] = (*Service)(nil)

// New creates an empty store.
func New() *Service {
	s := store.NewMemoryStore[int, acct.Record](acct.Key).
		WithOrder(func(a, b *acct.Record) bool { return a.ID < b.ID })
	return &Service{MemoryStore: s}
}
