// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command kometactl is the Kometa command-line companion.
//
// It inspects local comic archives without a server and drives a reader
// session against a running API: listing pages, reading and writing
// progress, and paging through an issue from the terminal.
package main
