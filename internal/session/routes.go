package session

import "github.com/nhle/facultyflow/internal/model"

// Route names an area of the client guarded by role.
type Route string

const (
	RouteDashboard  Route = "dashboard"
	RouteTasks      Route = "tasks"
	RouteCreateTask Route = "create-task"
	RoutePortfolio  Route = "portfolio"
	RouteAnalytics  Route = "analytics"
	RouteSettings   Route = "settings"
)

var allRoles = []model.Role{model.RoleFaculty, model.RoleHOD, model.RoleAdmin, model.RoleIT}

// routeRoles lists the roles allowed on each route.
var routeRoles = map[Route][]model.Role{
	RouteDashboard:  allRoles,
	RouteTasks:      allRoles,
	RouteCreateTask: {model.RoleHOD, model.RoleAdmin},
	RoutePortfolio:  {model.RoleFaculty, model.RoleHOD, model.RoleAdmin},
	RouteAnalytics:  {model.RoleHOD, model.RoleAdmin},
	RouteSettings:   allRoles,
}

// CanAccess reports whether role may open route. Unknown routes and
// roles are denied.
func CanAccess(role model.Role, route Route) bool {
	roles, ok := routeRoles[route]
	if !ok {
		return false
	}
	return role.In(roles...)
}

// Routes returns the routes role may open, in menu order.
func Routes(role model.Role) []Route {
	order := []Route{RouteDashboard, RouteTasks, RouteCreateTask, RoutePortfolio, RouteAnalytics, RouteSettings}
	out := make([]Route, 0, len(order))
	for _, r := range order {
		if CanAccess(role, r) {
			out = append(out, r)
		}
	}
	return out
}
