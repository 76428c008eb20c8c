package core

// QuotaPolicy is the number of analyses allowed per calendar day by tier.
type QuotaPolicy struct {
	FreeDaily    int
	PremiumDaily int
}

func (p QuotaPolicy) Limit(premium bool) int {
	if premium {
		return p.PremiumDaily
	}
	return p.FreeDaily
}

// Remaining is max(0, limit - usedToday).
func (p QuotaPolicy) Remaining(premium bool, usedToday int) int {
	return RemainingQuota(p.Limit(premium), usedToday)
}

func RemainingQuota(limit, usedToday int) int {
	if r := limit - usedToday; r > 0 {
		return r
	}
	return 0
}
