package namespace

var namespace string

// SetNamespace sets the table prefix shared by every persisted model.
func SetNamespace(ns string) {
	namespace = ns
}

func GetNamespace() string {
	return namespace
}
