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

package flowconfig

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/flowgate"
	"go.uber.org/flowgate/binding"
	"go.uber.org/flowgate/flowerrors"
	"go.uber.org/flowgate/internal/clock"
	"go.uber.org/flowgate/internal/config"
	"go.uber.org/flowgate/internal/interpolate"
	"go.uber.org/flowgate/router"
	"go.uber.org/multierr"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Configurator loads engine configurations. Binding types must be
// registered with it before configuration naming them is loaded.
type Configurator struct {
	registry *binding.Registry
	resolver interpolate.VariableResolver

	logger      *zap.Logger
	tracer      opentracing.Tracer
	metricsRoot *metrics.Root
	tally       tally.Scope
	clock       clock.Clock
}

// New sets up a new empty Configurator.
func New(opts ...Option) *Configurator {
	c := &Configurator{
		registry: binding.NewRegistry(),
		resolver: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterBinding registers a binding type with the Configurator, making
// its name usable as the type of bindings in loaded configuration.
func (c *Configurator) RegisterBinding(t binding.Type) error {
	return c.registry.Register(t)
}

// MustRegisterBinding registers a binding type and panics if it cannot be
// registered.
func (c *Configurator) MustRegisterBinding(t binding.Type) {
	if err := c.RegisterBinding(t); err != nil {
		panic(err)
	}
}

// Registry returns the binding types registered so far.
func (c *Configurator) Registry() *binding.Registry {
	return c.registry
}

// LoadConfigFromYAML loads an engine configuration and its namespaces from
// YAML.
func (c *Configurator) LoadConfigFromYAML(name string, r io.Reader) (flowgate.Config, []router.NamespaceConfig, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return flowgate.Config{}, nil, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return flowgate.Config{}, nil, flowerrors.Wrap(flowerrors.CodeInvalidArgument, err)
	}
	return c.LoadConfig(name, data)
}

// LoadConfig loads an engine configuration and its namespaces from a
// map[string]interface{} or any other parsed form of the configuration.
// Namespaces are returned sorted by name, with their bindings sorted by
// name.
func (c *Configurator) LoadConfig(name string, data interface{}) (flowgate.Config, []router.NamespaceConfig, error) {
	var fc fileConfig
	if err := config.DecodeInto(&fc, data, config.InterpolateWith(c.resolver)); err != nil {
		return flowgate.Config{}, nil, flowerrors.Wrap(flowerrors.CodeInvalidArgument, err)
	}
	return c.load(name, &fc)
}

// NewEngineFromYAML builds an engine from YAML and returns it with the
// namespaces to attach once it is started.
func (c *Configurator) NewEngineFromYAML(name string, r io.Reader) (*flowgate.Engine, []router.NamespaceConfig, error) {
	cfg, namespaces, err := c.LoadConfigFromYAML(name, r)
	if err != nil {
		return nil, nil, err
	}
	e, err := flowgate.NewEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	return e, namespaces, nil
}

// NewEngine builds an engine from parsed configuration and returns it with
// the namespaces to attach once it is started.
func (c *Configurator) NewEngine(name string, data interface{}) (*flowgate.Engine, []router.NamespaceConfig, error) {
	cfg, namespaces, err := c.LoadConfig(name, data)
	if err != nil {
		return nil, nil, err
	}
	e, err := flowgate.NewEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	return e, namespaces, nil
}

func (c *Configurator) load(name string, fc *fileConfig) (flowgate.Config, []router.NamespaceConfig, error) {
	var err error

	logger := c.logger
	if logger == nil {
		var buildErr error
		logger, buildErr = fc.Logging.build()
		err = multierr.Append(err, buildErr)
	}

	// Compiling against a scratch router reports routing errors at load
	// time instead of on attach.
	scratch := router.New(router.WithTypes(c.registry))
	namespaces := make([]router.NamespaceConfig, 0, len(fc.Namespaces))
	for _, nsName := range namespaceNames(fc.Namespaces) {
		ns, nsErr := c.loadNamespace(nsName, fc.Namespaces[nsName])
		if nsErr != nil {
			err = multierr.Append(err, nsErr)
			continue
		}
		if _, compileErr := scratch.Compile(ns); compileErr != nil {
			err = multierr.Append(err, fmt.Errorf("namespace %q: %v", nsName, compileErr))
			continue
		}
		namespaces = append(namespaces, ns)
	}
	if err != nil {
		return flowgate.Config{}, nil, flowerrors.Wrap(flowerrors.CodeInvalidArgument, err)
	}

	e := fc.Engine
	cfg := flowgate.Config{
		Name:                      name,
		Workers:                   e.Workers,
		StreamsBufferCapacity:     e.StreamsBufferCapacity,
		BufferSlotCapacity:        e.BufferSlotCapacity,
		BudgetsCapacity:           e.BudgetsCapacity,
		MaximumMessagesPerRead:    e.MaximumMessagesPerRead,
		MaximumExpirationsPerPoll: e.MaximumExpirationsPerPoll,
		MaximumTasksPerTick:       e.MaximumTasksPerTick,
		StreamDefaultMaximum:      e.StreamDefaultMaximum,
		PendingLimit:              e.PendingLimit,
		BackoffMaxSpins:           e.Backoff.MaxSpins,
		BackoffMaxYields:          e.Backoff.MaxYields,
		BackoffMinPark:            e.Backoff.MinPark,
		BackoffMaxPark:            e.Backoff.MaxPark,
		ChildCleanupLinger:        e.ChildCleanupLinger,
		DrainOnClose:              e.Drain.OnClose,
		DrainTimeout:              e.Drain.Timeout,
		SyntheticAbort:            e.SyntheticAbort,
		DebugBudgets:              e.DebugBudgets,
		LockOSThread:              e.LockOSThread,
		Clock:                     c.clock,
		Bindings:                  c.registry,
		Logging:                   flowgate.LoggingConfig{Zap: logger},
		Metrics:                   flowgate.MetricsConfig{Root: c.metricsRoot, Tally: c.tally},
		Tracing:                   flowgate.TracingConfig{Tracer: c.tracer},
	}
	return cfg, namespaces, nil
}

func (c *Configurator) loadNamespace(name string, bindings map[string]config.AttributeMap) (router.NamespaceConfig, error) {
	ns := router.NamespaceConfig{Name: name}
	var err error
	for _, bName := range bindingNames(bindings) {
		bc, bErr := c.loadBinding(bName, bindings[bName])
		if bErr != nil {
			err = multierr.Append(err, fmt.Errorf("binding %s:%s: %v", name, bName, bErr))
			continue
		}
		ns.Bindings = append(ns.Bindings, bc)
	}
	return ns, err
}

func (c *Configurator) loadBinding(name string, attrs config.AttributeMap) (router.BindingConfig, error) {
	bc := router.BindingConfig{Name: name}
	// The option map handed to the binding type must not share state with
	// the decoded input.
	attrs = attrs.Clone()

	var err error
	bc.Type, err = c.popInterpolated(attrs, "type")
	if err != nil {
		return bc, err
	}
	if bc.Type == "" {
		return bc, fmt.Errorf("type is required")
	}
	if _, ok := c.registry.Lookup(bc.Type); !ok {
		return bc, fmt.Errorf("unknown binding type %q, known types: %v", bc.Type, c.registry.Names())
	}

	kind, err := c.popInterpolated(attrs, "kind")
	if err != nil {
		return bc, err
	}
	if kind == "" {
		return bc, fmt.Errorf("kind is required")
	}
	if bc.Kind, err = router.ParseKind(kind); err != nil {
		return bc, err
	}

	if bc.Exit, err = c.popInterpolated(attrs, "exit"); err != nil {
		return bc, err
	}

	var routes []route
	if _, err := attrs.Pop("routes", &routes, config.InterpolateWith(c.resolver)); err != nil {
		return bc, err
	}
	for _, r := range routes {
		bc.Routes = append(bc.Routes, router.RouteConfig{When: r.When, Exit: r.Exit, Guard: r.Guard})
	}

	for _, key := range attrs.Keys() {
		s, ok := attrs[key].(string)
		if !ok {
			continue
		}
		v, err := c.interpolate(s)
		if err != nil {
			return bc, fmt.Errorf("option %q: %v", key, err)
		}
		attrs[key] = v
	}
	if len(attrs) > 0 {
		bc.Options = map[string]interface{}(attrs)
	}
	return bc, nil
}

func (c *Configurator) popInterpolated(attrs config.AttributeMap, name string) (string, error) {
	s, err := attrs.PopString(name)
	if err != nil {
		return "", err
	}
	v, err := c.interpolate(s)
	if err != nil {
		return "", fmt.Errorf("attribute %q: %v", name, err)
	}
	return v, nil
}

func (c *Configurator) interpolate(s string) (string, error) {
	parsed, err := interpolate.Parse(s)
	if err != nil {
		return "", fmt.Errorf("failed to parse %q for interpolation: %v", s, err)
	}
	return parsed.Render(c.resolver)
}

func namespaceNames(m map[string]map[string]config.AttributeMap) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bindingNames(m map[string]config.AttributeMap) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
