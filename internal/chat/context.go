package chat

import "fmt"

type ContextKind int

const (
	ContextNone ContextKind = iota
	ContextObject
	ContextIncident
)

// Context scopes a chat to one object or one incident, never both. Setting
// a new context fully replaces the old one.
type Context struct {
	Kind ContextKind
	ID   int64
	Name string // object name, kept for display only
}

func ObjectContext(id int64, name string) Context {
	return Context{Kind: ContextObject, ID: id, Name: name}
}

func IncidentContext(id int64) Context {
	return Context{Kind: ContextIncident, ID: id}
}

// payload is the context fragment attached to an outgoing message.
func (c Context) payload() map[string]int64 {
	switch c.Kind {
	case ContextObject:
		return map[string]int64{"objectId": c.ID}
	case ContextIncident:
		return map[string]int64{"incidentId": c.ID}
	}
	return nil
}

func (c Context) String() string {
	switch c.Kind {
	case ContextObject:
		if c.Name != "" {
			return fmt.Sprintf("object %s (#%d)", c.Name, c.ID)
		}
		return fmt.Sprintf("object #%d", c.ID)
	case ContextIncident:
		return fmt.Sprintf("incident #%d", c.ID)
	}
	return "none"
}
