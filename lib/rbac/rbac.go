package rbac

import (
	"regexp"
	"strings"

	"farm-ops-backend/models"

	"github.com/pkg/errors"
)

type Provider interface {
	GetRule(method, path string) (models.RbacRule, bool)
	RegisterRule(rule models.RbacRule, swaggerPattern string) error
}

var Instance Provider

func NewHandler() {
	i := NewInstance()
	i.initRules()
	Instance = i
}

func NewInstance() *impl {
	return &impl{
		rules: map[HTTPMethod]*PathRule{},
	}
}

type impl struct {
	rules map[HTTPMethod]*PathRule
}

func (i *impl) GetRule(method, path string) (models.RbacRule, bool) {
	pathRule, exists := i.rules[HTTPMethod(strings.ToUpper(method))]
	if !exists {
		return models.RbacRule{}, false
	}
	return i.findInPathRule(pathRule, normalizePath(path))
}

func (i *impl) RegisterRule(rule models.RbacRule, swaggerPattern string) error {
	path, method, err := parseSwaggerPattern(swaggerPattern)
	if err != nil {
		return err
	}
	if !rule.Action.IsValid() {
		return errors.Errorf("недопустимое действие %q для %s", rule.Action, swaggerPattern)
	}
	if _, exists := i.rules[method]; !exists {
		i.rules[method] = &PathRule{
			Exact:    map[string]models.RbacRule{},
			Patterns: []PatternRule{},
		}
	}
	pathRule := i.rules[method]
	if isExactPath(path) {
		pathRule.Exact[path] = rule
		return nil
	}
	pattern := pathToRegex(path)
	if pattern == nil {
		pathRule.Exact[path] = rule
		return nil
	}
	pathRule.Patterns = append(pathRule.Patterns, PatternRule{
		Pattern: pattern,
		Rule:    rule,
	})
	return nil
}

func isExactPath(path string) bool {
	return !strings.Contains(path, "{")
}

func pathToRegex(path string) *regexp.Regexp {
	// Экранируем специальные символы
	pattern := regexp.QuoteMeta(path)

	// Заменяем экранированные { и } на оригинальные для обработки параметров
	pattern = strings.ReplaceAll(pattern, "\\{", "{")
	pattern = strings.ReplaceAll(pattern, "\\}", "}")

	// Заменяем {param}
	pattern = regexp.MustCompile(`\{[^}]+?\}`).ReplaceAllString(pattern, `([^/]+)`)

	pattern = strings.ReplaceAll(pattern, `\*`, `.*?`)
	pattern = "^" + pattern + "$"

	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}

	return regex
}

func (i *impl) findInPathRule(pathRule *PathRule, path string) (models.RbacRule, bool) {
	if handler, exists := pathRule.Exact[path]; exists {
		return handler, true
	}
	for _, patternRule := range pathRule.Patterns {
		if patternRule.Pattern.MatchString(path) {
			return patternRule.Rule, true
		}
	}
	return models.RbacRule{}, false
}

// парсит строку в формате "/api/v1/users [post]"
func parseSwaggerPattern(pattern string) (path string, method HTTPMethod, err error) {
	pattern = strings.TrimSpace(pattern)

	bracketStart := strings.LastIndex(pattern, "[")
	bracketEnd := strings.LastIndex(pattern, "]")

	if bracketStart != -1 && bracketEnd != -1 && bracketEnd > bracketStart {
		path = strings.TrimSpace(pattern[:bracketStart])

		methodsStr := pattern[bracketStart+1 : bracketEnd]
		method = HTTPMethod(strings.ToUpper(strings.TrimSpace(methodsStr)))
	} else {
		return "", "", errors.Errorf("Method not provided for pattern (%v)", pattern)
	}

	path = normalizePath(path)

	return path, method, nil
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}

	return path
}
