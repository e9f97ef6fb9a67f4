//go:build !race

package auth

// hashCostProduction is used by HashPassword and by a BcryptHasher
// created without an explicit cost.
const hashCostProduction = 14

func defaultHashCost() int {
	return hashCostProduction
}
