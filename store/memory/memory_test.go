package memory_test

import (
	"testing"

	"github.com/warp/customer-rewards/rewards"
	"github.com/warp/customer-rewards/store/memory"
	"github.com/warp/customer-rewards/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) rewards.Repository {
		return memory.New()
	})
}
