// Package whitelist computes the issue keys suppressed for a single audited entity.
package whitelist

// IssueSet is a set of suppressed issue keys.
type IssueSet map[string]struct{}

// Contains reports whether issueKey is suppressed.
func (set IssueSet) Contains(issueKey string) bool {
	_, found := set[issueKey]
	return found
}

// Resolve returns the union of the global issue keys and the keys listed for entityID.
// Neither input is modified.
func Resolve(entityID string, perEntity map[string][]string, global []string) IssueSet {
	entityKeys := perEntity[entityID]
	resolved := make(IssueSet, len(global)+len(entityKeys))
	for _, issueKey := range global {
		resolved[issueKey] = struct{}{}
	}
	for _, issueKey := range entityKeys {
		resolved[issueKey] = struct{}{}
	}
	return resolved
}
