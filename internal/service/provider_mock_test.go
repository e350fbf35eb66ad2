package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/you/go-flight-aggregator/internal/providers"
)

type ProviderMock struct {
	mock.Mock
	name  string
	delay time.Duration
}

func newProviderMock(name string) *ProviderMock {
	return &ProviderMock{name: name}
}

func (p *ProviderMock) Name() string {
	return p.name
}

func (p *ProviderMock) Search(ctx context.Context, c providers.SearchCriteria) ([]providers.FlightOffer, error) {
	args := p.Called(ctx, c)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	offers, _ := args.Get(0).([]providers.FlightOffer)
	return offers, args.Error(1)
}
