// Where: internal/definitions/specification.go
// What: Base type for configuration entities with stable identity tokens.
// Why: Bundle caches are addressed by entity identity across operations.
package definitions

import "github.com/google/uuid"

// uuidKey is the document key under which identity tokens are stored.
const uuidKey = "_uuid"

// Specification is the base for every entity view over the configuration
// document. An identity token is stamped into the backing document at
// construction when absent, so repeated view construction over the same
// document node always yields the same token.
type Specification struct {
	DataWrapper

	// Directory is the project root in which the configuration resides.
	Directory string
}

func newSpecification(directory string, data map[string]any) Specification {
	spec := Specification{
		DataWrapper: NewDataWrapper(data),
		Directory:   directory,
	}
	spec.SetDefault(uuid.NewString(), uuidKey)
	return spec
}

// UUID returns the entity's identity token.
func (s Specification) UUID() string {
	return s.GetString(uuidKey)
}
