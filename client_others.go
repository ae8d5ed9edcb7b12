//go:build !linux
// +build !linux

package wifi

import (
	"context"
	"errors"
	"time"
)

// errUnimplemented is returned by all functions on platforms that
// do not have package wifi implemented.
var errUnimplemented = errors.New("wifi: not implemented on this platform")

var _ osClient = &client{}

// A client is the no-op implementation of osClient.
type client struct{}

func newClient(_ *Codec) (*client, error) { return nil, errUnimplemented }

func (*client) Close() error                               { return errUnimplemented }
func (*client) Interfaces() ([]*Interface, error)          { return nil, errUnimplemented }
func (*client) BSS(_ *Interface) (*BSS, error)             { return nil, errUnimplemented }
func (*client) AccessPoints(_ *Interface) ([]*BSS, error)  { return nil, errUnimplemented }
func (*client) Scan(_ context.Context, _ *Interface) error { return errUnimplemented }
func (*client) SetDeadline(_ time.Time) error              { return errUnimplemented }
func (*client) SetReadDeadline(_ time.Time) error          { return errUnimplemented }
func (*client) SetWriteDeadline(_ time.Time) error         { return errUnimplemented }
