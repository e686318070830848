// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient sorts the transport errors that end a retrying
// round trip into a small set of categories. The retrying transports
// never retry a transport error, so the categories exist for logging
// and for bucketing error metrics, where "timeout" and "connection
// refused" deserve different dashboards.
//
// Package transient depends only on the standard library.
package transient
