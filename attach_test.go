// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package flowgate

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/binding/bindingtest"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/flowgatetest"
	"go.uber.org/flowgate/frame"
	"go.uber.org/flowgate/router"
	"go.uber.org/flowgate/stream"
)

func mockType(ctrl *gomock.Controller, name string) *bindingtest.MockType {
	typ := bindingtest.NewMockType(ctrl)
	typ.EXPECT().Name().Return(name).AnyTimes()
	return typ
}

func rejectAll(*frame.Frame) stream.Receiver { return nil }

func TestAttachRollsBackOnFailure(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	flaky := mockType(mockCtrl, "flaky")
	client := flowgatetest.NewClientType("client")
	e := newTestEngine(t, Config{Workers: 2, Bindings: binding.NewRegistry(client, flaky)})

	v1 := router.NamespaceConfig{
		Name:     "ns",
		Bindings: []router.BindingConfig{{Name: "svc", Type: "client", Kind: binding.KindClient}},
	}
	require.NoError(t, e.Attach(v1))
	before, _ := e.Router().Namespace("ns")
	svc := mustBinding(t, e, "ns", "svc")
	require.Equal(t, 2, client.Attached(svc.ID))

	boom := errors.New("boom")
	flaky.EXPECT().Attach(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx binding.Context, b *router.Binding) (binding.Handler, error) {
			if ctx.Index() == 1 {
				return nil, boom
			}
			return binding.HandlerFunc(rejectAll), nil
		}).Times(2)
	flaky.EXPECT().Detach(gomock.Any(), gomock.Any()).Times(1)

	v2 := router.NamespaceConfig{
		Name: "ns",
		Bindings: []router.BindingConfig{
			{Name: "svc", Type: "client", Kind: binding.KindClient, Options: map[string]interface{}{"v": 2}},
			{Name: "flaky", Type: "flaky", Kind: binding.KindServer},
		},
	}
	err := e.Attach(v2)
	require.Error(t, err)
	assert.True(t, flowerrors.IsAttachFailed(err))
	assert.Contains(t, err.Error(), "worker 1: binding ns:flaky: boom")

	after, ok := e.Router().Namespace("ns")
	require.True(t, ok)
	assert.True(t, before == after, "previous namespace stays published")
	assert.Equal(t, 2, client.Attached(svc.ID), "replaced binding is attached again")
	for _, w := range e.workers {
		a, ok := w.attachments[svc.ID]
		require.True(t, ok)
		assert.True(t, a.binding == svc, "worker %d runs the previous version", w.index)
		assert.Len(t, w.attachments, 1)
	}
}

func TestAttachCompileErrorKeepsPrevious(t *testing.T) {
	e := newTestEngine(t, Config{})
	require.NoError(t, e.Attach(echoNamespace()))
	before, _ := e.Router().Namespace("test")

	bad := echoNamespace()
	bad.Bindings[0].Exit = "missing"
	err := e.Attach(bad)
	require.Error(t, err)
	assert.True(t, flowerrors.IsInvalidArgument(err))

	after, _ := e.Router().Namespace("test")
	assert.True(t, before == after)
}

func TestReconfigureKeepsUnchangedHandlers(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	stable := mockType(mockCtrl, "stable")
	client := flowgatetest.NewClientType("client")
	e := newTestEngine(t, Config{Workers: 2, Bindings: binding.NewRegistry(client, stable)})

	// Attached once per worker by the first configuration only, and
	// detached once per worker when the third one drops it.
	stable.EXPECT().Attach(gomock.Any(), gomock.Any()).Return(binding.HandlerFunc(rejectAll), nil).Times(2)
	stable.EXPECT().Detach(gomock.Any(), gomock.Any()).Times(2)

	keep := router.BindingConfig{Name: "keep", Type: "stable", Kind: binding.KindServer}
	require.NoError(t, e.Attach(router.NamespaceConfig{Name: "ns", Bindings: []router.BindingConfig{keep}}))
	keepID := mustBinding(t, e, "ns", "keep").ID

	require.NoError(t, e.Attach(router.NamespaceConfig{
		Name: "ns",
		Bindings: []router.BindingConfig{
			keep,
			{Name: "added", Type: "client", Kind: binding.KindClient, Exit: "keep"},
		},
	}))
	added := mustBinding(t, e, "ns", "added")
	assert.Equal(t, 2, client.Attached(added.ID))
	assert.Equal(t, keepID, mustBinding(t, e, "ns", "keep").ID)

	require.NoError(t, e.Attach(router.NamespaceConfig{
		Name:     "ns",
		Bindings: []router.BindingConfig{{Name: "added", Type: "client", Kind: binding.KindClient}},
	}))
	_, ok := e.Router().Lookup(keepID)
	assert.False(t, ok, "removed binding is withdrawn")
	assert.Equal(t, 2, client.Attached(added.ID), "changed binding attached once more after its detach")
	for _, w := range e.workers {
		_, ok := w.attachments[keepID]
		assert.False(t, ok)
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	client := flowgatetest.NewClientType("client")
	e := newTestEngine(t, Config{Workers: 2, Bindings: binding.NewRegistry(client)})

	assert.NoError(t, e.Detach("missing"))
	assert.NoError(t, e.DetachBinding(12345))

	require.NoError(t, e.Attach(router.NamespaceConfig{
		Name: "ns",
		Bindings: []router.BindingConfig{
			{Name: "a", Type: "client", Kind: binding.KindClient},
			{Name: "b", Type: "client", Kind: binding.KindClient},
		},
	}))
	a := mustBinding(t, e, "ns", "a")
	b := mustBinding(t, e, "ns", "b")

	require.NoError(t, e.DetachBinding(a.ID))
	require.NoError(t, e.DetachBinding(a.ID))
	assert.Equal(t, 0, client.Attached(a.ID))
	assert.Equal(t, 2, client.Attached(b.ID))

	ns, ok := e.Router().Namespace("ns")
	require.True(t, ok)
	_, ok = ns.Binding("a")
	assert.False(t, ok)

	require.NoError(t, e.Detach("ns"))
	require.NoError(t, e.Detach("ns"))
	assert.Equal(t, 0, client.Attached(b.ID))
	assert.Empty(t, e.Router().Namespaces())
}
