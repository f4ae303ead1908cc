package simulation

import (
	"context"
	"sync"

	"github.com/andrescamacho/harbor-go/internal/application/common"
	"github.com/andrescamacho/harbor-go/internal/application/trade/coordination"
)

// launcher runs agents on their own goroutines: set up, arrive at the barrier, run
type launcher struct {
	ctx      context.Context
	stop     context.CancelFunc
	gate     *coordination.StartGate
	failures chan error
	logger   common.AgentLogger

	wg sync.WaitGroup
}

// launch starts agent and counts it at barrier once its setup succeeded
func (l *launcher) launch(agent Agent, barrier *coordination.Barrier) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx := common.WithLogger(l.ctx, l.logger)
		if err := agent.Setup(ctx); err != nil {
			l.failures <- err
			return
		}
		barrier.Arrive()

		if err := agent.Run(ctx, l.gate); err != nil {
			l.logger.Log("ERROR", "Agent stopped with error", map[string]interface{}{
				"agent": agent.Name(),
				"error": err.Error(),
			})
		}
	}()
}

// await blocks until barrier opens, an agent fails setup, or ctx ends
func (l *launcher) await(barrier *coordination.Barrier) error {
	opened := make(chan error, 1)
	go func() { opened <- barrier.Wait(l.ctx) }()

	select {
	case err := <-opened:
		return err
	case err := <-l.failures:
		return err
	}
}

// stopAll cancels every agent and waits for all of them to return
func (l *launcher) stopAll() {
	l.stop()
	l.wg.Wait()
}
