package access

import "sync"

// Decision is a memoized engine verdict.
type Decision struct {
	Granted bool
	Reason  string
}

type decisionKey struct {
	principalID string
	collection  string
	access      Type
}

// DecisionCache memoizes (principal, collection, access type) verdicts for
// the lifetime of the process. It is safe for concurrent use. Entries for a
// principal must be invalidated whenever that principal's assignments change;
// the users service does this on every mutation.
type DecisionCache struct {
	mu      sync.RWMutex
	entries map[decisionKey]Decision
}

// NewDecisionCache constructs an empty cache.
func NewDecisionCache() *DecisionCache {
	return &DecisionCache{entries: make(map[decisionKey]Decision)}
}

// Get returns the cached decision, if any.
func (c *DecisionCache) Get(principalID, collection string, access Type) (Decision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[decisionKey{principalID, collection, access}]
	return d, ok
}

// Put stores a decision.
func (c *DecisionCache) Put(principalID, collection string, access Type, d Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[decisionKey{principalID, collection, access}] = d
}

// InvalidatePrincipal drops every cached decision for the principal and
// returns the number of evicted entries.
func (c *DecisionCache) InvalidatePrincipal(principalID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for key := range c.entries {
		if key.principalID == principalID {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of cached decisions.
func (c *DecisionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
