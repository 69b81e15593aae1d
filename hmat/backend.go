// SPDX-License-Identifier: MIT

//go:build !nohmat

package hmat

// backendAvailable reports whether hierarchical matrices can be built.
// Building with the nohmat tag turns the backend off.
var backendAvailable = true
