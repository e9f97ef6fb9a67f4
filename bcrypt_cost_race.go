//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race builds hash at the library default so the store tests stay
// inside their timeouts.
func defaultHashCost() int {
	return bcrypt.DefaultCost
}
