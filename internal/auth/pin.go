package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

// roleRank orders roles for threshold checks. A manager clears any gate a
// waiter clears; an admin clears everything.
var roleRank = map[pos.Role]int{
	pos.RoleWaiter:  1,
	pos.RoleManager: 2,
	pos.RoleAdmin:   3,
}

func RoleAtLeast(have, want pos.Role) bool {
	return roleRank[have] >= roleRank[want]
}

func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPIN(hash, pin string) bool {
	if hash == "" || pin == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// AuthorizePIN finds a waiter whose role clears the threshold and whose PIN
// matches. It is how price overrides and drawer opens get countersigned.
func AuthorizePIN(waiters []pos.Waiter, pin string, minimum pos.Role) (pos.Waiter, bool) {
	for _, w := range waiters {
		if RoleAtLeast(w.Role, minimum) && CheckPIN(w.PINHash, pin) {
			return w, true
		}
	}
	return pos.Waiter{}, false
}
