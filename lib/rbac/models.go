package rbac

import (
	"regexp"

	"farm-ops-backend/models"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	PUT    HTTPMethod = "PUT"
	DELETE HTTPMethod = "DELETE"
	PATCH  HTTPMethod = "PATCH"
)

type PathRule struct {
	// проверки (от быстрых к медленным)
	Exact    map[string]models.RbacRule
	Patterns []PatternRule
}

type PatternRule struct {
	Pattern *regexp.Regexp
	Rule    models.RbacRule
}
