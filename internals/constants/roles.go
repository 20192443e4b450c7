package constants

// Actor roles known to the contract lifecycle. The value is stored verbatim in
// contract_cancelled_by, so keep these stable.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
)

var AllRoles = []string{
	RoleCustomer,
	RoleOwner,
	RoleAgent,
	RoleAdmin,
}

func IsKnownRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
