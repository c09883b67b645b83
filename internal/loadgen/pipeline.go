package loadgen

import (
	"context"
	"sync"

	"github.com/rwatch/datagen/internal/storage"
)

// Pipeline wires a Generator and a Storer through a shared Staging area.
type Pipeline struct {
	Staging   *Staging
	Generator *Generator
	Storer    *Storer
}

// PipelineStats contains statistics for every stage.
type PipelineStats struct {
	Generator GeneratorStats
	Staging   StagingStats
	Storer    StorerStats
}

// NewPipeline creates the generator/storer pair feeding store.
func NewPipeline(store storage.Store, cfg Config, opts ...GeneratorOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	staging := NewStaging()
	return &Pipeline{
		Staging:   staging,
		Generator: NewGenerator(staging, cfg.GenerateInterval, opts...),
		Storer:    NewStorer(store, staging, cfg.StoreInterval),
	}, nil
}

// Run starts both workers and blocks until ctx is canceled and both have
// stopped. The storer performs its final drain after the generator has
// staged its last pending entries.
func (p *Pipeline) Run(ctx context.Context) {
	genCtx, cancelGen := context.WithCancel(ctx)
	defer cancelGen()

	storeCtx, cancelStore := context.WithCancel(context.Background())
	defer cancelStore()

	var genWG, storeWG sync.WaitGroup
	genWG.Add(1)
	go func() {
		defer genWG.Done()
		p.Generator.Run(genCtx)
	}()

	storeWG.Add(1)
	go func() {
		defer storeWG.Done()
		p.Storer.Run(storeCtx)
	}()

	<-ctx.Done()
	genWG.Wait()
	cancelStore()
	storeWG.Wait()
}

// Stats returns statistics for every stage.
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Generator: p.Generator.Stats(),
		Staging:   p.Staging.Stats(),
		Storer:    p.Storer.Stats(),
	}
}
