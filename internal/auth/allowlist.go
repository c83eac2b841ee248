// Package auth decides which Telegram identities may use the bot.
package auth

import (
	"sync/atomic"
)

// DefaultAllowedIDs are the operator accounts and group chat permitted when no
// configuration overrides them.
var DefaultAllowedIDs = []int64{5425205882, 2092596833, -1002757263947}

// Authorizer reports whether an identity may use the bot.
type Authorizer interface {
	Allowed(id int64) bool
}

// AllowList is a fixed set of permitted identities that can be swapped at runtime.
type AllowList struct {
	ids atomic.Pointer[map[int64]struct{}]
}

// NewAllowList builds an AllowList from ids, or from DefaultAllowedIDs when ids is empty.
func NewAllowList(ids []int64) *AllowList {
	l := &AllowList{}
	l.Replace(ids)
	return l
}

// Allowed reports whether id is in the list.
func (l *AllowList) Allowed(id int64) bool {
	if l == nil {
		return false
	}
	set := l.ids.Load()
	if set == nil {
		return false
	}
	_, ok := (*set)[id]
	return ok
}

// Replace swaps the permitted set. An empty slice restores the defaults.
func (l *AllowList) Replace(ids []int64) {
	if len(ids) == 0 {
		ids = DefaultAllowedIDs
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	l.ids.Store(&set)
}

// Len returns the number of permitted identities.
func (l *AllowList) Len() int {
	set := l.ids.Load()
	if set == nil {
		return 0
	}
	return len(*set)
}
