package metrics

import "github.com/docker/go-metrics"

const (
	// NamespacePrefix is the namespace of prometheus metrics
	NamespacePrefix = "ipld"
)

var (
	// StorageNamespace is the prometheus namespace of block storage and cache operations
	StorageNamespace = metrics.NewNamespace(NamespacePrefix, "storage", nil)

	// SelectNamespace is the prometheus namespace of selector traversals
	SelectNamespace = metrics.NewNamespace(NamespacePrefix, "select", nil)
)
