package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleAdmin  = "admin"
	RoleAgent  = "agent"
	RoleViewer = "viewer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// CanDial reports whether the role may place or re-run calls.
func CanDial(role string) bool { return role == RoleAdmin || role == RoleAgent }
