package models

import "sort"

// ActiveApprovalTokens returns the non-voided tokens recorded for key, in
// their stored order.
func (c *CardEntry) ActiveApprovalTokens(key string) []ApprovalToken {
	if c == nil || c.ApprovalTokens == nil {
		return nil
	}
	var active []ApprovalToken
	for _, token := range c.ApprovalTokens[key] {
		if !token.Voided {
			active = append(active, token)
		}
	}
	return active
}

// LatestApprovalToken returns the most recent active token for key, or nil.
// The latest active token is authoritative regardless of older votes.
func (c *CardEntry) LatestApprovalToken(key string) *ApprovalToken {
	active := c.ActiveApprovalTokens(key)
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Date > active[j].Date
	})
	latest := active[0]
	return &latest
}
