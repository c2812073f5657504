package whisk

import (
	"fmt"
	"strings"
)

// QualifiedName is an entity name with an optional namespace, written as
// "/namespace/[package/]name" or just "[package/]name".
type QualifiedName struct {
	Namespace string
	Entity    string
}

// ParseQualifiedName splits name. A name without a leading slash leaves
// Namespace empty, meaning the client's configured namespace.
func ParseQualifiedName(name string) (QualifiedName, error) {
	if name == "" {
		return QualifiedName{}, fmt.Errorf("entity name is empty")
	}

	if !strings.HasPrefix(name, "/") {
		if strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
			return QualifiedName{}, fmt.Errorf("'%s' is not a valid qualified name", name)
		}
		return QualifiedName{Entity: name}, nil
	}

	namespace, entity, _ := strings.Cut(strings.TrimPrefix(name, "/"), "/")
	if namespace == "" || strings.HasSuffix(entity, "/") || strings.Contains(entity, "//") {
		return QualifiedName{}, fmt.Errorf("'%s' is not a valid qualified name", name)
	}
	return QualifiedName{Namespace: namespace, Entity: entity}, nil
}

func (q QualifiedName) String() string {
	if q.Namespace == "" {
		return q.Entity
	}
	if q.Entity == "" {
		return "/" + q.Namespace
	}
	return "/" + q.Namespace + "/" + q.Entity
}

// FullyQualify returns name as "/namespace/name", using defaultNamespace when
// name carries none.
func FullyQualify(name, defaultNamespace string) (string, error) {
	q, err := ParseQualifiedName(name)
	if err != nil {
		return "", err
	}
	if q.Namespace == "" {
		q.Namespace = defaultNamespace
	}
	return q.String(), nil
}
