package authclient

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/go-set/v3"
)

// Administrative routes of the dashboard.
const (
	RouteHome          = "/"
	RouteDashboard     = "/dashboard"
	RouteUsers         = "/user"
	RouteParkingDetail = "/parking-detail"
	RouteDzongkhag     = "/dzongkhag"
	RouteParkingArea   = "/parking-area"
	RouteParkingSlot   = "/parking-slot"
	RouteNotifications = "/notifications"
)

// AdminRoutes lists the routes reachable from the administrative sidebar.
func AdminRoutes() []string {
	return []string{
		RouteDashboard,
		RouteUsers,
		RouteParkingDetail,
		RouteDzongkhag,
		RouteParkingArea,
		RouteParkingSlot,
		RouteNotifications,
	}
}

// Gate decides whether a route may be opened by the current session. Every
// check re-reads the session, so a logout elsewhere is observed on the next
// call. Routes that were never registered are denied.
type Gate struct {
	sessions SessionReader

	mu        sync.RWMutex
	protected map[string]*set.Set[Role]
	public    *set.Set[string]
}

// NewGate returns an empty gate backed by sessions.
func NewGate(sessions SessionReader) *Gate {
	return &Gate{
		sessions:  sessions,
		protected: map[string]*set.Set[Role]{},
		public:    set.New[string](0),
	}
}

// NewAdminGate protects AdminRoutes with AdminRoles and makes "/" public.
func NewAdminGate(sessions SessionReader) *Gate {
	g := NewGate(sessions)
	g.Public(RouteHome)
	g.Protect(AdminRoles(), AdminRoutes()...)
	return g
}

// Protect restricts routes to the given roles.
func (g *Gate) Protect(roles *set.Set[Role], routes ...string) *Gate {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, route := range routes {
		route = normalizeRoute(route)
		g.public.Remove(route)
		g.protected[route] = roles
	}
	return g
}

// Public marks routes as reachable without a session.
func (g *Gate) Public(routes ...string) *Gate {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, route := range routes {
		route = normalizeRoute(route)
		delete(g.protected, route)
		g.public.Insert(route)
	}
	return g
}

// Allow reports whether route may be opened.
func (g *Gate) Allow(ctx context.Context, route string) bool {
	return g.Check(ctx, route) == nil
}

// Check returns nil when route may be opened, ErrNoSession when it needs a
// session and none is valid, and ErrForbiddenRoute otherwise.
func (g *Gate) Check(ctx context.Context, route string) error {
	route = normalizeRoute(route)

	g.mu.RLock()
	public := g.public.Contains(route)
	roles, protected := g.protected[route]
	g.mu.RUnlock()

	if public {
		return nil
	}

	if !protected {
		return detailed(ErrForbiddenRoute, "route is not registered", map[string]any{
			"route": route,
		})
	}

	claims, ok := g.sessions.CurrentUser(ctx)
	if !ok {
		return detailed(ErrNoSession, "", map[string]any{"route": route})
	}

	if !IsPermitted(claims.Role, roles) {
		return detailed(ErrForbiddenRoute, "", map[string]any{
			"route": route,
			"role":  claims.Role.String(),
		})
	}

	return nil
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return RouteHome
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
		if route == "" {
			route = RouteHome
		}
	}
	return route
}
