package sync

import "fmt"

// Intent names the document-store mutation a sync call follows. The engine
// mirrors that mutation into the graph store.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentUpdate Intent = "update"
	IntentDelete Intent = "delete"
)

// Valid reports whether i is one of the three known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentCreate, IntentUpdate, IntentDelete:
		return true
	}
	return false
}

// ParseIntent converts a request string into an Intent.
func ParseIntent(s string) (Intent, error) {
	i := Intent(s)
	if !i.Valid() {
		return "", fmt.Errorf("unknown sync intent %q (want create, update or delete)", s)
	}
	return i, nil
}
