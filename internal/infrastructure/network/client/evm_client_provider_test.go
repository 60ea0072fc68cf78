package client

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vault_client/internal/app/port"
	"vault_client/internal/domain/entity"
	"vault_client/internal/infrastructure/configloader"
	networkdefinition "vault_client/internal/infrastructure/network/definition"
	"vault_client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestEVMClientProviderSlowDialDoesNotBlockOtherChains(t *testing.T) {
	chains := networkdefinition.NewChainDefinitionProvider(logger.Nop(), nil)
	p := NewEVMClientProvider(configloader.Default(), chains, logger.Nop())

	started := make(chan struct{})
	release := make(chan struct{})
	var slowDials int32
	p.dial = func(chain entity.ChainConfig, limiter *rate.Limiter, _, rpcCallTimeout time.Duration) (*EVMClient, error) {
		if chain.ChainID == 1 {
			if atomic.AddInt32(&slowDials, 1) == 1 {
				close(started)
			}
			<-release
		}
		return newEVMClient(nil, chain, limiter, rpcCallTimeout), nil
	}

	slow := make([]port.ChainReader, 3)
	var wg sync.WaitGroup
	for i := range slow {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := p.GetReader(1)
			assert.NoError(t, err)
			slow[i] = r
		}(i)
	}
	<-started

	done := make(chan port.ChainReader, 1)
	go func() {
		r, err := p.GetReader(1337)
		assert.NoError(t, err)
		done <- r
	}()
	select {
	case r := <-done:
		assert.NotNil(t, r)
	case <-time.After(2 * time.Second):
		t.Fatal("GetReader(1337) waited for the chain 1 dial")
	}

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&slowDials), "one dial per chain")
	require.NotNil(t, slow[0])
	assert.Same(t, slow[0], slow[1])
	assert.Same(t, slow[0], slow[2])

	_, err := p.GetReader(999)
	assert.ErrorContains(t, err, "not configured")
}
