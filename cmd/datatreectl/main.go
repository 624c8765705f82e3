// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Command datatreectl exercises the data tree from the command line.
package main

func main() {
	execute()
}
