package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyAdminName     = "admin_name"
	KeyAdminEmail    = "admin_email"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
	KeyContext       = "USER_CONTEXT"
)
