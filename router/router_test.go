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

package router

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/multierr"
)

func testNamespace() NamespaceConfig {
	return NamespaceConfig{
		Name: "app",
		Bindings: []BindingConfig{
			{
				Name: "gateway",
				Type: "proxy",
				Kind: KindProxy,
				Routes: []RouteConfig{
					{When: []map[string]string{{"topic": "a"}}, Exit: "t1"},
					{Exit: "t2"},
				},
			},
			{Name: "t1", Type: "echo", Kind: KindServer},
			{Name: "t2", Type: "echo", Kind: KindServer},
		},
	}
}

func TestResolveFirstMatch(t *testing.T) {
	r := New()
	ns, err := r.Compile(testNamespace())
	require.NoError(t, err)

	gateway, ok := ns.Binding("gateway")
	require.True(t, ok)
	t1, _ := ns.Binding("t1")
	t2, _ := ns.Binding("t2")

	tests := []struct {
		topic string
		want  uint64
	}{
		{"a", t1.ID},
		{"b", t2.ID},
		{"", t2.ID},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			attrs := MapAttributes{}
			if tt.topic != "" {
				attrs["topic"] = tt.topic
			}
			route, ok := gateway.Resolve(0, attrs)
			require.True(t, ok)
			assert.Equal(t, tt.want, route.Target)

			again, _ := gateway.Resolve(0, attrs)
			assert.Equal(t, route, again, "resolution is deterministic")
		})
	}
}

func TestBindingIDs(t *testing.T) {
	r := New()
	ns, err := r.Compile(testNamespace())
	require.NoError(t, err)

	nsLabel, ok := r.Labels().ID("app")
	require.True(t, ok)
	assert.Equal(t, nsLabel, ns.Label)
	for _, b := range ns.Bindings {
		assert.Equal(t, nsLabel, NamespaceLabel(b.ID))
		name, ok := r.Labels().Lookup(BindingLabel(b.ID))
		require.True(t, ok)
		assert.Equal(t, b.Name, name)
		found, ok := ns.Lookup(b.ID)
		require.True(t, ok)
		assert.Equal(t, b, found)
	}
}

func TestExitAndGuard(t *testing.T) {
	r := New()
	ns, err := r.Compile(NamespaceConfig{
		Name: "app",
		Bindings: []BindingConfig{
			{
				Name: "gateway",
				Type: "proxy",
				Kind: KindProxy,
				Routes: []RouteConfig{
					{When: []map[string]string{{"path": "/admin/*"}}, Exit: "admin", Guard: 0x6},
				},
				Exit: "other:fallback",
			},
			{Name: "admin", Type: "echo", Kind: KindServer},
		},
	})
	require.NoError(t, err)
	gateway, _ := ns.Binding("gateway")
	admin, _ := ns.Binding("admin")
	require.Len(t, gateway.Routes, 2)

	fallbackNS, ok := r.Labels().ID("other")
	require.True(t, ok)

	route, ok := gateway.Resolve(0x7, MapAttributes{"path": "/admin/users"})
	require.True(t, ok)
	assert.Equal(t, admin.ID, route.Target)

	route, ok = gateway.Resolve(0x2, MapAttributes{"path": "/admin/users"})
	require.True(t, ok)
	assert.Equal(t, fallbackNS, NamespaceLabel(route.Target), "missing authorization falls through to exit")
	assert.Equal(t, 1, route.Index)
	assert.Nil(t, route.Condition)
}

func TestAnyOfWhenClauses(t *testing.T) {
	r := New()
	ns, err := r.Compile(NamespaceConfig{
		Name: "app",
		Bindings: []BindingConfig{
			{
				Name: "gateway", Type: "proxy", Kind: KindProxy,
				Routes: []RouteConfig{{
					When: []map[string]string{{"topic": "a"}, {"topic": "b", "key": "k*"}},
					Exit: "t",
				}},
			},
			{Name: "t", Type: "echo", Kind: KindServer},
		},
	})
	require.NoError(t, err)
	gateway, _ := ns.Binding("gateway")

	_, ok := gateway.Resolve(0, MapAttributes{"topic": "a"})
	assert.True(t, ok)
	_, ok = gateway.Resolve(0, MapAttributes{"topic": "b", "key": "k1"})
	assert.True(t, ok)
	_, ok = gateway.Resolve(0, MapAttributes{"topic": "b", "key": "j1"})
	assert.False(t, ok)
	_, ok = gateway.Resolve(0, nil)
	assert.False(t, ok)
}

type fakeTypes map[string]ConditionDecoder

func (f fakeTypes) ConditionDecoder(name string) (ConditionDecoder, bool) {
	d, ok := f[name]
	return d, ok
}

func TestCompileErrors(t *testing.T) {
	failing := ConditionDecoderFunc(func(map[string]string) (Condition, error) {
		return nil, errors.New("bad condition")
	})
	r := New(WithTypes(fakeTypes{"echo": nil, "strict": failing}))

	tests := []struct {
		msg       string
		give      NamespaceConfig
		wantCount int
	}{
		{
			msg:       "no name",
			give:      NamespaceConfig{},
			wantCount: 1,
		},
		{
			msg:       "colon in name",
			give:      NamespaceConfig{Name: "a:b"},
			wantCount: 1,
		},
		{
			msg: "duplicate and nameless bindings",
			give: NamespaceConfig{Name: "app", Bindings: []BindingConfig{
				{Name: "x", Type: "echo", Kind: KindServer},
				{Name: "x", Type: "echo", Kind: KindServer},
				{Type: "echo", Kind: KindServer},
			}},
			wantCount: 2,
		},
		{
			msg: "unknown type, bad kind and missing target",
			give: NamespaceConfig{Name: "app", Bindings: []BindingConfig{
				{Name: "x", Type: "kafka", Routes: []RouteConfig{{Exit: "nowhere"}}},
			}},
			wantCount: 3,
		},
		{
			msg: "self route, malformed target, bad condition",
			give: NamespaceConfig{Name: "app", Bindings: []BindingConfig{
				{Name: "x", Type: "strict", Kind: KindProxy, Routes: []RouteConfig{
					{Exit: "x"},
					{Exit: "app:"},
					{When: []map[string]string{{"a": "b"}}, Exit: "y"},
				}},
				{Name: "y", Type: "echo", Kind: KindServer},
			}},
			wantCount: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			ns, err := r.Compile(tt.give)
			require.Error(t, err)
			assert.Nil(t, ns)
			assert.True(t, flowerrors.IsInvalidArgument(err), "got %v", err)
			cause := errors.Unwrap(err)
			if cause == nil {
				cause = err
			}
			assert.Len(t, multierr.Errors(cause), tt.wantCount, "got %v", err)
		})
	}
}

func TestFieldConditionWildcardPosition(t *testing.T) {
	_, err := FieldConditions.DecodeCondition(map[string]string{"topic": "a*b"})
	assert.Error(t, err)
	_, err = FieldConditions.DecodeCondition(map[string]string{"": "a"})
	assert.Error(t, err)

	cond, err := FieldConditions.DecodeCondition(map[string]string{"topic": "*"})
	require.NoError(t, err)
	assert.True(t, cond.Matches(MapAttributes{"topic": ""}))
	assert.False(t, cond.Matches(MapAttributes{}))
	assert.Equal(t, "topic=*", cond.(FieldCondition).String())
}

func TestPublishWithdraw(t *testing.T) {
	r := New()
	ns, err := r.Compile(testNamespace())
	require.NoError(t, err)
	gateway, _ := ns.Binding("gateway")

	_, ok := r.Lookup(gateway.ID)
	assert.False(t, ok, "compiled namespaces are not visible until published")

	assert.Nil(t, r.Publish(ns))
	found, ok := r.Lookup(gateway.ID)
	require.True(t, ok)
	assert.Equal(t, gateway, found)

	route, ok := r.Resolve(gateway.ID, 0, MapAttributes{"topic": "a"})
	require.True(t, ok)
	assert.Equal(t, "t1", route.TargetName)

	cfg := testNamespace()
	cfg.Bindings = cfg.Bindings[1:]
	smaller, err := r.Compile(cfg)
	require.NoError(t, err)
	assert.Equal(t, ns, r.Publish(smaller))
	_, ok = r.Lookup(gateway.ID)
	assert.False(t, ok, "replaced bindings are gone")

	other, err := r.Compile(NamespaceConfig{Name: "other", Bindings: []BindingConfig{{Name: "e", Type: "echo", Kind: KindServer}}})
	require.NoError(t, err)
	r.Publish(other)
	names := []string{}
	for _, n := range r.Namespaces() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"app", "other"}, names)

	withdrawn, ok := r.Withdraw("app")
	require.True(t, ok)
	assert.Equal(t, smaller, withdrawn)
	_, ok = r.Withdraw("app")
	assert.False(t, ok)
	_, ok = r.Namespace("other")
	assert.True(t, ok)
}

func TestSameAs(t *testing.T) {
	r := New()
	a, err := r.Compile(testNamespace())
	require.NoError(t, err)
	b, err := r.Compile(testNamespace())
	require.NoError(t, err)

	ga, _ := a.Binding("gateway")
	gb, _ := b.Binding("gateway")
	assert.True(t, ga.SameAs(gb))

	cfg := testNamespace()
	cfg.Bindings[0].Options = map[string]interface{}{"retries": 3}
	c, err := r.Compile(cfg)
	require.NoError(t, err)
	gc, _ := c.Binding("gateway")
	assert.False(t, ga.SameAs(gc))
	assert.Equal(t, ga.ID, gc.ID, "ids are stable across compiles")
}

func TestConcurrentLookups(t *testing.T) {
	r := New()
	ns, err := r.Compile(testNamespace())
	require.NoError(t, err)
	gateway, _ := ns.Binding("gateway")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					r.Lookup(gateway.ID)
					r.Namespaces()
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		r.Publish(ns)
		r.Withdraw(ns.Name)
	}
	close(stop)
	wg.Wait()
}

func TestKind(t *testing.T) {
	for k := KindServer; k <= KindCacheServer; k++ {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var got Kind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}

	k, err := ParseKind("REMOTE_SERVER")
	require.NoError(t, err)
	assert.Equal(t, KindRemoteServer, k)

	_, err = ParseKind("router")
	assert.Error(t, err)
	_, err = KindUnknown.MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Kind(42)", Kind(42).String())
}

func TestLabels(t *testing.T) {
	l := NewLabels()
	a := l.Supply("a")
	assert.Equal(t, a, l.Supply("a"))
	assert.NotEqual(t, a, l.Supply("b"))
	assert.NotZero(t, a)

	_, ok := l.Lookup(0)
	assert.False(t, ok)
	_, ok = l.ID("c")
	assert.False(t, ok)

	id := BindingID(3, 7)
	assert.Equal(t, int32(3), NamespaceLabel(id))
	assert.Equal(t, int32(7), BindingLabel(id))
}

func TestNamespaceWithout(t *testing.T) {
	r := New()
	ns, err := r.Compile(testNamespace())
	require.NoError(t, err)
	t1, _ := ns.Binding("t1")

	smaller := ns.Without(t1.ID)
	assert.Len(t, smaller.Bindings, 2)
	_, ok := smaller.Binding("t1")
	assert.False(t, ok)
	_, ok = smaller.Lookup(t1.ID)
	assert.False(t, ok)
	assert.Len(t, ns.Bindings, 3, "original is unchanged")

	gateway, _ := smaller.Binding("gateway")
	route, ok := gateway.Resolve(0, MapAttributes{"topic": "a"})
	require.True(t, ok)
	assert.Equal(t, t1.ID, route.Target)
}
