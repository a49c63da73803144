package usecase

import "strings"

type Tier int

const (
	TierBasic Tier = iota + 1
	TierPremium
	TierVIP
)

func (t Tier) Price() string {
	switch t {
	case TierBasic:
		return "$50"
	case TierPremium:
		return "$100"
	default:
		return "$200"
	}
}

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierPremium:
		return "premium"
	default:
		return "vip"
	}
}

// TierFor maps a package label to its tier. The keyboard labels match exactly;
// the Premium and VIP labels mention the lower tiers, so substring matching
// only applies to free text. Text mentioning neither Basic nor Premium is VIP.
func TierFor(servicePackage string) Tier {
	switch servicePackage {
	case PackageBasic:
		return TierBasic
	case PackagePremium:
		return TierPremium
	case PackageVIP:
		return TierVIP
	}
	switch {
	case strings.Contains(servicePackage, "Basic"):
		return TierBasic
	case strings.Contains(servicePackage, "Premium"):
		return TierPremium
	default:
		return TierVIP
	}
}

func PriceFor(servicePackage string) string {
	return TierFor(servicePackage).Price()
}

func isKnownPackage(servicePackage string) bool {
	switch servicePackage {
	case PackageBasic, PackagePremium, PackageVIP:
		return true
	}
	return false
}
