package imc

import (
	"context"
)

// DeviceClient is the slice of the XML API the operations use. The concrete
// Client implements it; tests substitute a recording fake.
type DeviceClient interface {
	ModifyConfig(ctx context.Context, dn, inConfig string) (*Response, error)
	ResolveClass(ctx context.Context, class string, hierarchical bool) (*Response, error)
}

// Module exposes the management operations for one controller. Every
// operation validates its input before touching the client.
type Module struct {
	client DeviceClient
}

func NewModule(client DeviceClient) *Module {
	return &Module{client: client}
}

func (m *Module) resolve(ctx context.Context, class string, hierarchical bool) ([]Object, error) {
	resp, err := m.client.ResolveClass(ctx, class, hierarchical)
	if err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

func (m *Module) modify(ctx context.Context, dn, inConfig string) ([]Object, error) {
	resp, err := m.client.ModifyConfig(ctx, dn, inConfig)
	if err != nil {
		return nil, err
	}
	return resp.Objects, nil
}
