// Command membank runs the memory-bank MCP server.
//
// The default transport is stdio (JSON-RPC 2.0, line-delimited); serve-http
// starts the Streamable HTTP transport instead. A small admin surface
// (init, add-context, add-component, add-decision, add-rule) writes to a
// memory bank directly without going through a transport.
//
// Optional environment variables:
//
//	DB_FILENAME       - per-project database directory name (default: memory-bank.kuzu)
//	HOST              - bind host for HTTP transports (default: localhost)
//	PORT              - reserved base port, no listener in stdio mode (default: 3000)
//	HTTP_STREAM_PORT  - Streamable HTTP port (default: 3001)
//	DEBUG             - log verbosity 0-4 (default: 2)
package main

import (
	"fmt"
	"os"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "membank: %v\n", err)
		os.Exit(1)
	}
}
