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

// Package flowconfig builds engine configurations from YAML or any
// map[string]interface{} parsed from another format.
//
// Binding types must be registered against a Configurator before
// configuration that uses them is loaded.
//
// 	cfg := flowconfig.New()
// 	cfg.MustRegisterBinding(echo.New())
// 	cfg.MustRegisterBinding(proxy.New())
//
// 	engine, namespaces, err := cfg.NewEngineFromYAML("edge", yamlConfig)
// 	if err != nil {
// 		log.Fatal(err)
// 	}
//
// Configuration
//
// The configuration accepts three top-level attributes: engine, logging and
// namespaces.
//
// 	engine:
// 	  workers: ${WORKERS:4}
// 	  streamsBufferCapacity: 1024
// 	  backoff:
// 	    maxPark: 5ms
// 	  drain:
// 	    onClose: true
// 	    timeout: 2s
// 	logging:
// 	  level: info
// 	namespaces:
// 	  edge:
// 	    app:
// 	      type: client
// 	      kind: client
// 	      exit: gateway
// 	    gateway:
// 	      type: proxy
// 	      kind: proxy
// 	      affinity: 2
// 	      routes:
// 	        - exit: backend:echo
// 	          when:
// 	            - service: echo
//
// The engine section maps onto flowgate.Config; durations use Go duration
// syntax. Every binding is keyed by its name within its namespace and takes
// a type, a kind and an optional exit and routes. Any other attribute is an
// option handed to the binding type, which rejects options it does not know.
//
// Environment variables
//
// String values of the engine section, binding types, kinds and exits, route
// exits, and string options may refer to environment variables as
// ${NAME} or ${NAME:default}. A variable that is unset and has no default
// is an error. Use the InterpolationResolver option to look variables up
// somewhere other than the process environment.
package flowconfig
