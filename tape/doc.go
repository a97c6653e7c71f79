// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tape exposes the AD dependency graph: reference-counted nodes,
// directed influence edges, and forward/backward traversal.
//
// # Overview
//
// Every differentiable value that participates in gradient computation owns
// a node on a Tape. Edges record which nodes influence which; traversal
// walks the reachable subgraph in dependency order, applying either the
// built-in identity propagation or the Callback an edge carries.
//
// # Basic Usage
//
//	tp := tape.New(num.Float64)
//	a := tp.NewNode()
//	b := tp.NewNode()
//	tp.AddEdge(a, b)                         // a influences b
//	tp.AccumGrad(b, num.Scalar(1))           // seed
//	tp.Backward(b)
//	g := tp.Grad(a)                          // identity-propagated seed
//
// # Lifetime
//
// Nodes are destroyed exactly when their reference count reaches zero; a
// node's count equals the number of live holders (values, edges, pending
// dependency entries) that name it. Destruction cascades through the node's
// incoming edges.
//
// A Tape is single-writer shared state: concurrent mutation requires
// external synchronization.
package tape
