package memstore

import (
	"testing"

	"github.com/mesh-intelligence/formdraft/internal/storetest"
	"github.com/mesh-intelligence/formdraft/pkg/types"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store { return New() })
}
