// Package cli builds process invocation specs for the Claude CLI and
// discovers the binary on the local system.
//
// NewProcessSpec resolves a query into a ProcessSpec: the ordered argument
// vector (flags first, prompt last), the working directory, and the child
// environment in either inherit or isolate mode. NewDiscoverer locates the
// binary via an explicit path, $PATH, or common install locations.
package cli
