// SPDX-License-Identifier: MIT

//go:build nohmat

package hmat

var backendAvailable = false
