package protocol

import (
	"fmt"

	"github.com/ronaldjose/terrastore/internal/store"
)

// Tag identifies a command type on the wire.
type Tag byte

const (
	TagAddBucket    Tag = 0x01
	TagRemoveBucket Tag = 0x02
	TagPutValue     Tag = 0x03
	TagRemoveValue  Tag = 0x04
	TagGetValue     Tag = 0x05
	TagGetValues    Tag = 0x06
	TagGetKeys      Tag = 0x07
	TagGetBuckets   Tag = 0x08
	TagRangeQuery   Tag = 0x09
	TagUpdate       Tag = 0x0A
	TagMembership   Tag = 0x0B
)

// Node is the transport surface a command needs to forward itself.
type Node interface {
	Name() string
	Send(cmd Command) (*Result, error)
}

// Router is the routing surface point commands dispatch against at the
// originating node.
type Router interface {
	RouteToLocalNode() (Node, error)
	RouteToNodeFor(bucket, key string) (Node, error)
}

// Environment is the capability set a command executes against at the
// terminal node.
type Environment interface {
	Store() store.Store
	Registry() *store.Registry
	Executor() store.Executor
	Membership() View
}

// Command executes at the terminal node against the local Environment.
type Command interface {
	Tag() Tag
	Execute(env Environment) (*Result, error)
}

// RoutedCommand is a point command that can resolve its own destination
// and forward itself.
type RoutedCommand interface {
	Command
	Route(router Router) (*Result, error)
}

// Result is the reply envelope. Each command populates the fields its
// reply carries; the rest stay empty on the wire.
type Result struct {
	Value   store.Value            `json:"value,omitempty"`
	Values  map[string]store.Value `json:"values,omitempty"`
	Keys    []string               `json:"keys,omitempty"`
	Buckets []string               `json:"buckets,omitempty"`
	View    *View                  `json:"view,omitempty"`
}

// Member identifies an ensemble participant.
type Member struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (m Member) String() string {
	return fmt.Sprintf("%s@%s:%d", m.Name, m.Host, m.Port)
}

// View is the membership snapshot a node reports for its cluster.
// Members form an unordered set; views are compared by set difference.
type View struct {
	Cluster string   `json:"cluster"`
	Members []Member `json:"members"`
}

// MemberSet returns the members keyed for set-difference comparison.
func (v View) MemberSet() map[Member]struct{} {
	set := make(map[Member]struct{}, len(v.Members))
	for _, m := range v.Members {
		set[m] = struct{}{}
	}
	return set
}
